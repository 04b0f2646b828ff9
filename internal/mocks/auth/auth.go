package auth

// Package auth contains simple hand-written test doubles for the session ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
	apperrors "github.com/target/helpdesk-console/internal/errors"
	"github.com/target/helpdesk-console/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthAPI      = (*MockAuthAPI)(nil)
	_ ports.TokenStorage = (*MemoryTokenStorage)(nil)
)

// MockAuthAPI simulates the helpdesk backend with deterministic token issuance.
type MockAuthAPI struct {
	LoginFunc   func(ctx context.Context, creds domainauth.Credentials) (domainauth.AuthResponse, error)
	LogoutFunc  func(ctx context.Context) error
	RefreshFunc func(ctx context.Context, refreshToken string) (domainauth.AuthResponse, error)
	MeFunc      func(ctx context.Context) (domainauth.User, error)

	// Password accepted by the default Login. Empty accepts any password.
	Password    string
	DefaultUser domainauth.User

	mu     sync.Mutex
	issued int
	calls  map[string]int
}

// NewMockAuthAPI creates a MockAuthAPI with sensible defaults.
func NewMockAuthAPI() *MockAuthAPI {
	return &MockAuthAPI{
		Password:    "secret",
		DefaultUser: DefaultUser(),
	}
}

// DefaultUser returns the agent account used by the mock backend.
func DefaultUser() domainauth.User {
	return domainauth.User{
		ID:         "user-1",
		Username:   "agent",
		Email:      "agent@example.com",
		FullName:   "Mock Agent",
		Role:       domainauth.RoleAgent,
		Department: "IT",
		IsActive:   true,
	}
}

func (m *MockAuthAPI) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
}

// Calls returns how many times method name was invoked.
func (m *MockAuthAPI) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockAuthAPI) issue() domainauth.AuthResponse {
	m.mu.Lock()
	m.issued++
	n := m.issued
	m.mu.Unlock()

	user := m.DefaultUser
	if user.ID == "" {
		user = DefaultUser()
	}
	return domainauth.AuthResponse{
		AccessToken:  fmt.Sprintf("access-%d", n),
		RefreshToken: fmt.Sprintf("refresh-%d", n),
		ExpiresIn:    "15m",
		User:         user,
	}
}

func (m *MockAuthAPI) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.AuthResponse, error) {
	m.record("Login")
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	if m.Password != "" && creds.Password != m.Password {
		return domainauth.AuthResponse{}, apperrors.InvalidCredentials("Invalid username or password.")
	}
	return m.issue(), nil
}

func (m *MockAuthAPI) Logout(ctx context.Context) error {
	m.record("Logout")
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

func (m *MockAuthAPI) Refresh(ctx context.Context, refreshToken string) (domainauth.AuthResponse, error) {
	m.record("Refresh")
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	if refreshToken == "" {
		return domainauth.AuthResponse{}, apperrors.TokenInvalid("refresh token required")
	}
	return m.issue(), nil
}

func (m *MockAuthAPI) Me(ctx context.Context) (domainauth.User, error) {
	m.record("Me")
	if m.MeFunc != nil {
		return m.MeFunc(ctx)
	}
	user := m.DefaultUser
	if user.ID == "" {
		user = DefaultUser()
	}
	return user, nil
}

// MemoryTokenStorage is an in-memory token storage for unit tests with
// injectable write failures.
type MemoryTokenStorage struct {
	SetErr    error
	RemoveErr error

	mu     sync.Mutex
	values map[string]string
}

// NewMemoryTokenStorage creates storage pre-populated with seed.
func NewMemoryTokenStorage(seed map[string]string) *MemoryTokenStorage {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &MemoryTokenStorage{values: values}
}

func (m *MemoryTokenStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryTokenStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func (m *MemoryTokenStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryTokenStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// ErrStorageUnavailable is a canned storage failure for tests.
var ErrStorageUnavailable = errors.New("storage unavailable")
