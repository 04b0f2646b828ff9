package auth

// Package auth contains domain-level types for console authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents a helpdesk user's authorization role.
// Keep the upper-case string form used by the helpdesk API.
type Role string

const (
	RoleRequester  Role = "REQUESTER"
	RoleAgent      Role = "AGENT"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
)

// Valid reports whether r is one of the known helpdesk roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleAgent, RoleSupervisor, RoleAdmin:
		return true
	default:
		return false
	}
}

// Storage keys under which the token pair is persisted.
const (
	StorageKeyToken        = "token"
	StorageKeyRefreshToken = "refreshToken"
)

// User is the helpdesk account returned by the API.
type User struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FullName   string     `json:"fullName"`
	Role       Role       `json:"role"`
	Department string     `json:"department,omitempty"`
	Location   string     `json:"location,omitempty"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// Credentials are the username/password pair submitted on login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair holds the access and refresh tokens issued by the API.
// Both are empty when unauthenticated.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Empty reports whether neither token is set.
func (p TokenPair) Empty() bool { return p.AccessToken == "" && p.RefreshToken == "" }

// AuthResponse is the payload returned by the login and refresh endpoints.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	User         User   `json:"user"`
}

// Tokens returns the token pair carried by the response.
func (r AuthResponse) Tokens() TokenPair {
	return TokenPair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

// State is the session-level state derived from a Snapshot.
type State string

const (
	StateUnauthenticated        State = "unauthenticated"
	StateAuthenticatedNoProfile State = "authenticated_no_profile"
	StateAuthenticated          State = "authenticated"
)

// Snapshot is a point-in-time copy of the console session.
// User is nil until a login, refresh, or profile fetch populates it.
type Snapshot struct {
	Tokens    TokenPair
	User      *User
	Loading   bool
	LastError string
}

// IsAuthenticated reports whether an access token is present.
// It does not depend on User having been loaded.
func (s Snapshot) IsAuthenticated() bool { return s.Tokens.AccessToken != "" }

// State reports the session state.
func (s Snapshot) State() State {
	switch {
	case !s.IsAuthenticated():
		return StateUnauthenticated
	case s.User == nil:
		return StateAuthenticatedNoProfile
	default:
		return StateAuthenticated
	}
}
