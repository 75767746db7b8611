package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSessionInvalid is returned for unknown, revoked or expired session tokens.
var ErrSessionInvalid = errors.New("session is invalid")

// Session is a server side login session. The token is handed to the client
// as a bearer token and stored in the cookie session.
type Session struct {
	Token     string    `gorm:"primaryKey;size:36"`
	UserID    uint      `gorm:"index;not null"`
	User      User      `gorm:"constraint:OnDelete:CASCADE;"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Revoked   bool      `gorm:"default:false"`
	CreatedAt time.Time
}

type SessionDB interface {
	CreateSession(ctx context.Context, userID uint, ttl time.Duration) (*Session, error)
	GetSession(ctx context.Context, token string) (*Session, error)
	RevokeSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

func newSession(userID uint, ttl time.Duration) *Session {
	return &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
}

// CreateSession issues a new random token for the user valid for ttl.
func (c *Client) CreateSession(ctx context.Context, userID uint, ttl time.Duration) (*Session, error) {
	session := newSession(userID, ttl)
	if err := c.db.WithContext(ctx).Create(session).Error; err != nil {
		log.Error("failed to create session", "error", err)
		return nil, err
	}
	return session, nil
}

// GetSession returns the active session for token with its user preloaded.
func (c *Client) GetSession(ctx context.Context, token string) (*Session, error) {
	var session Session
	err := c.db.WithContext(ctx).
		Preload("User").
		Where("token = ? AND revoked = ? AND expires_at > ?", token, false, time.Now().UTC()).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		log.Error("failed to get session", "error", err)
		return nil, err
	}
	return &session, nil
}

// RevokeSession marks the session as revoked. Unknown tokens are ignored.
func (c *Client) RevokeSession(ctx context.Context, token string) error {
	if err := c.db.WithContext(ctx).Model(&Session{}).Where("token = ?", token).Update("revoked", true).Error; err != nil {
		log.Error("failed to revoke session", "error", err)
		return err
	}
	return nil
}

// DeleteExpiredSessions removes expired and revoked sessions and returns how many were deleted.
func (c *Client) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result := c.db.WithContext(ctx).Where("expires_at <= ? OR revoked = ?", time.Now().UTC(), true).Delete(&Session{})
	if result.Error != nil {
		log.Error("failed to delete expired sessions", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
