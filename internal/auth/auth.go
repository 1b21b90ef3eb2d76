package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/subgen/internal/database"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDuplicateUser is returned on signup when the username or a tracked email is taken.
	ErrDuplicateUser = errors.New("duplicate user")
	// ErrUsernameTaken and ErrEmailTaken tell which key collided.
	ErrUsernameTaken = fmt.Errorf("%w: username already exists", ErrDuplicateUser)
	ErrEmailTaken    = fmt.Errorf("%w: email already registered", ErrDuplicateUser)
	// ErrInvalidCredentials is returned when the user is unknown or the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingCredentials is returned when a username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
)

// Authenticator is the account capability used by the HTTP layer.
type Authenticator interface {
	Signup(ctx context.Context, username, email, password string) (*database.User, error)
	Login(ctx context.Context, username, password string) (*database.User, error)
}

var _ Authenticator = (*Manager)(nil)

// Manager validates credentials against a credential store.
type Manager struct {
	store      database.CredentialStore
	trackEmail bool
	cost       int
}

// Option configures a Manager.
type Option func(*Manager)

// WithEmailTracking enforces unique emails on signup.
func WithEmailTracking(enabled bool) Option {
	return func(m *Manager) {
		m.trackEmail = enabled
	}
}

// WithCost sets the bcrypt cost. Values outside the bcrypt range fall back to the default.
func WithCost(cost int) Option {
	return func(m *Manager) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			m.cost = cost
		}
	}
}

// NewManager creates a new Manager.
func NewManager(store database.CredentialStore, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		cost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Signup creates a new user. The username is checked first, then the email if tracked.
// On any failure no record is written.
func (m *Manager) Signup(ctx context.Context, username, email, password string) (*database.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	if _, err := m.store.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, database.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}

	user := &database.User{Username: username}
	if m.trackEmail && email != "" {
		if _, err := m.store.GetUserByEmail(ctx, email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, database.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up email: %w", err)
		}
		user.Email = &email
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := m.store.CreateUser(ctx, user); err != nil {
		// lost a race against a concurrent signup
		if errors.Is(err, database.ErrDuplicateKey) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user signed up", "username", username)
	return user, nil
}

// Login checks the password against the stored hash.
func (m *Manager) Login(ctx context.Context, username, password string) (*database.User, error) {
	user, err := m.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Debug("password mismatch", "username", user.Username)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
