package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// ErrUserExists is returned when a username is already taken.
var ErrUserExists = errors.New("user already exists")

// User represents a registered account.
// The password is only ever stored as a bcrypt hash.
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FirstName    string
	LastName     string
	Email        string
}

type UserDB interface {
	CreateUserWithSession(ctx context.Context, user *User, ttl time.Duration) (*Session, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UserExists(ctx context.Context, username string) (bool, error)
}

// CreateUserWithSession inserts a new user and its first session in one transaction,
// so a failure leaves neither behind. A duplicate username yields ErrUserExists.
func (c *Client) CreateUserWithSession(ctx context.Context, user *User, ttl time.Duration) (*Session, error) {
	var session *Session
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		session = newSession(user.ID, ttl)
		return tx.Create(session).Error
	})
	if err != nil {
		user.ID = 0
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		log.Error("failed to create user", "error", err)
		return nil, err
	}
	return session, nil
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get user by username", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) UserExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		log.Error("failed to check user existence", "error", err)
		return false, err
	}
	return count > 0, nil
}
