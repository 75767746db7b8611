package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dealerhub/dealerhub/internal/database"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// bcrypt only looks at the first 72 bytes of a password and refuses to hash longer ones.
const maxPasswordBytes = 72

var (
	// ErrInvalidCredentials is returned when the username is unknown or the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordTooLong is returned when a new password exceeds 72 bytes.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// Registration holds the fields of a new account.
type Registration struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

// Service implements password authentication and server side sessions.
type Service struct {
	db         database.DB
	sessionTTL time.Duration
	cost       int
	dummyHash  []byte
}

// NewService creates a new auth service. Sessions expire after sessionTTL.
func NewService(db database.DB, sessionTTL time.Duration) *Service {
	return newServiceWithCost(db, sessionTTL, bcrypt.DefaultCost)
}

func newServiceWithCost(db database.DB, sessionTTL time.Duration, cost int) *Service {
	// compared against when the user does not exist so that both paths cost a bcrypt round
	dummy, _ := bcrypt.GenerateFromPassword([]byte("dealerhub-dummy-password"), cost)
	return &Service{
		db:         db,
		sessionTTL: sessionTTL,
		cost:       cost,
		dummyHash:  dummy,
	}
}

// Authenticate checks the credentials and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*database.User, error) {
	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Register creates a new user together with its first session. It returns
// database.ErrUserExists when the username is taken, including when another
// request registered it concurrently.
func (s *Service) Register(ctx context.Context, r Registration) (*database.User, *database.Session, error) {
	if len(r.Password) > maxPasswordBytes {
		return nil, nil, ErrPasswordTooLong
	}

	exists, err := s.db.UserExists(ctx, r.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check user: %w", err)
	}
	if exists {
		return nil, nil, database.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &database.User{
		Username:     r.Username,
		PasswordHash: string(hash),
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
	}
	session, err := s.db.CreateUserWithSession(ctx, user, s.sessionTTL)
	if err != nil {
		if errors.Is(err, database.ErrUserExists) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, session, nil
}

// IssueSession creates a new session for the user.
func (s *Service) IssueSession(ctx context.Context, user *database.User) (*database.Session, error) {
	session, err := s.db.CreateSession(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ValidateSession returns the active session for token.
func (s *Service) ValidateSession(ctx context.Context, token string) (*database.Session, error) {
	if token == "" {
		return nil, database.ErrSessionInvalid
	}
	return s.db.GetSession(ctx, token)
}

// Revoke invalidates the session token.
func (s *Service) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.db.RevokeSession(ctx, token)
}
