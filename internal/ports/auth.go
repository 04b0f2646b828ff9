package ports

// Package ports defines interfaces (hexagonal ports) for console session behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
)

// AuthAPI is the helpdesk backend's authentication surface.
type AuthAPI interface {
	// Login exchanges credentials for a token pair and the user profile.
	Login(ctx context.Context, creds domainauth.Credentials) (domainauth.AuthResponse, error)

	// Logout notifies the backend that the current session ends.
	Logout(ctx context.Context) error

	// Refresh exchanges a refresh token for a new token pair and user profile.
	Refresh(ctx context.Context, refreshToken string) (domainauth.AuthResponse, error)

	// Me returns the profile of the user owning the current access token.
	Me(ctx context.Context) (domainauth.User, error)
}

// TokenStorage is a synchronous durable key/value store for session tokens.
// Writes must be visible to the next Get immediately.
type TokenStorage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}
