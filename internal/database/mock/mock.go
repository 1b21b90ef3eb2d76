package mock

import (
	"context"
	"sync"

	"github.com/jon4hz/subgen/internal/database"
)

var _ database.CredentialStore = (*MockDB)(nil)

// MockDB is a mock implementation of database.CredentialStore for testing.
type MockDB struct {
	mu sync.RWMutex

	users      map[string]*database.User
	nextUserID uint

	// Error simulation
	CreateUserError        error
	GetUserByUsernameError error
	GetUserByEmailError    error
	CountUsersError        error

	// CreateUserCalls counts calls to CreateUser, including failed ones.
	CreateUserCalls int
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		users:      make(map[string]*database.User),
		nextUserID: 1,
	}
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[string]*database.User)
	m.nextUserID = 1
	m.CreateUserCalls = 0

	m.CreateUserError = nil
	m.GetUserByUsernameError = nil
	m.GetUserByEmailError = nil
	m.CountUsersError = nil
}

func (m *MockDB) CreateUser(_ context.Context, user *database.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateUserCalls++
	if m.CreateUserError != nil {
		return m.CreateUserError
	}

	if _, ok := m.users[user.Username]; ok {
		return database.ErrDuplicateKey
	}
	if user.Email != nil {
		for _, existing := range m.users {
			if existing.Email != nil && *existing.Email == *user.Email {
				return database.ErrDuplicateKey
			}
		}
	}

	user.ID = m.nextUserID
	m.nextUserID++
	stored := *user
	m.users[user.Username] = &stored
	return nil
}

func (m *MockDB) GetUserByUsername(_ context.Context, username string) (*database.User, error) {
	if m.GetUserByUsernameError != nil {
		return nil, m.GetUserByUsernameError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[username]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MockDB) GetUserByEmail(_ context.Context, email string) (*database.User, error) {
	if m.GetUserByEmailError != nil {
		return nil, m.GetUserByEmailError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Email != nil && *user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (m *MockDB) CountUsers(_ context.Context) (int64, error) {
	if m.CountUsersError != nil {
		return 0, m.CountUsersError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

func (m *MockDB) Close() error {
	return nil
}

// UserCount returns the number of stored users.
func (m *MockDB) UserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}
