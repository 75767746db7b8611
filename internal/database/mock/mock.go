package mock

import (
	"context"
	"sync"
	"time"

	"github.com/dealerhub/dealerhub/internal/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is an in-memory implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	// User storage
	users      map[uint]*database.User
	nextUserID uint

	// Session storage
	sessions map[string]*database.Session

	// Catalog storage
	makes       []database.CarMake
	models      []database.CarModel
	SeedCalls   int
	nextCatalog uint

	// Error simulation
	CreateUserError        error
	GetUserByUsernameError error
	UserExistsError        error
	CreateSessionError     error
	GetSessionError        error
	RevokeSessionError     error
	CountCarMakesError     error
	SeedCatalogError       error
	ListCarModelsError     error
	StatsError             error
	PingError              error
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	m := &MockDB{}
	m.Reset()
	return m
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[uint]*database.User)
	m.nextUserID = 1
	m.sessions = make(map[string]*database.Session)
	m.makes = nil
	m.models = nil
	m.SeedCalls = 0
	m.nextCatalog = 1

	m.CreateUserError = nil
	m.GetUserByUsernameError = nil
	m.UserExistsError = nil
	m.CreateSessionError = nil
	m.GetSessionError = nil
	m.RevokeSessionError = nil
	m.CountCarMakesError = nil
	m.SeedCatalogError = nil
	m.ListCarModelsError = nil
	m.StatsError = nil
	m.PingError = nil
}

// User operations

func (m *MockDB) CreateUserWithSession(ctx context.Context, user *database.User, ttl time.Duration) (*database.Session, error) {
	if m.CreateUserError != nil {
		return nil, m.CreateUserError
	}
	// fails before anything is stored, like a rolled back transaction
	if m.CreateSessionError != nil {
		return nil, m.CreateSessionError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return nil, database.ErrUserExists
		}
	}
	user.ID = m.nextUserID
	m.nextUserID++
	stored := *user
	m.users[user.ID] = &stored

	session := m.newSession(user.ID, ttl)
	copied := *session
	return &copied, nil
}

func (m *MockDB) GetUserByUsername(ctx context.Context, username string) (*database.User, error) {
	if m.GetUserByUsernameError != nil {
		return nil, m.GetUserByUsernameError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			user := *u
			return &user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockDB) UserExists(ctx context.Context, username string) (bool, error) {
	if m.UserExistsError != nil {
		return false, m.UserExistsError
	}
	_, err := m.GetUserByUsername(ctx, username)
	return err == nil, nil
}

// Session operations

func (m *MockDB) CreateSession(ctx context.Context, userID uint, ttl time.Duration) (*database.Session, error) {
	if m.CreateSessionError != nil {
		return nil, m.CreateSessionError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *m.newSession(userID, ttl)
	return &copied, nil
}

// newSession stores a new session. Callers hold the write lock.
func (m *MockDB) newSession(userID uint, ttl time.Duration) *database.Session {
	session := &database.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
	m.sessions[session.Token] = session
	return session
}

func (m *MockDB) GetSession(ctx context.Context, token string) (*database.Session, error) {
	if m.GetSessionError != nil {
		return nil, m.GetSessionError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok || s.Revoked || !s.ExpiresAt.After(time.Now()) {
		return nil, database.ErrSessionInvalid
	}
	session := *s
	if u, ok := m.users[s.UserID]; ok {
		session.User = *u
	}
	return &session, nil
}

func (m *MockDB) RevokeSession(ctx context.Context, token string) error {
	if m.RevokeSessionError != nil {
		return m.RevokeSessionError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[token]; ok {
		s.Revoked = true
	}
	return nil
}

func (m *MockDB) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for token, s := range m.sessions {
		if s.Revoked || !s.ExpiresAt.After(time.Now()) {
			delete(m.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

// IsRevoked reports whether a known session was revoked. Helper for tests.
func (m *MockDB) IsRevoked(token string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	return ok && s.Revoked
}

// Catalog operations

func (m *MockDB) CountCarMakes(ctx context.Context) (int64, error) {
	if m.CountCarMakesError != nil {
		return 0, m.CountCarMakesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.makes)), nil
}

func (m *MockDB) SeedCatalog(ctx context.Context, makes []database.SeedMake) error {
	if m.SeedCatalogError != nil {
		return m.SeedCatalogError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.SeedCalls++
	for _, sm := range makes {
		carMake := database.CarMake{Name: sm.Name, Description: sm.Description}
		carMake.ID = m.nextCatalog
		m.nextCatalog++
		m.makes = append(m.makes, carMake)
		for _, sm := range sm.Models {
			model := database.CarModel{CarMakeID: carMake.ID, CarMake: carMake, Name: sm.Name, Type: sm.Type, Year: sm.Year}
			model.ID = m.nextCatalog
			m.nextCatalog++
			m.models = append(m.models, model)
		}
	}
	return nil
}

func (m *MockDB) ListCarModels(ctx context.Context) ([]database.CarModel, error) {
	if m.ListCarModelsError != nil {
		return nil, m.ListCarModelsError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]database.CarModel(nil), m.models...), nil
}

// Misc

func (m *MockDB) Stats(ctx context.Context) (*database.Stats, error) {
	if m.StatsError != nil {
		return nil, m.StatsError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return &database.Stats{
		Users:     int64(len(m.users)),
		CarMakes:  int64(len(m.makes)),
		CarModels: int64(len(m.models)),
	}, nil
}

func (m *MockDB) Ping(ctx context.Context) error {
	return m.PingError
}
