package helpdeskapi

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
	apperrors "github.com/target/helpdesk-console/internal/errors"
	"github.com/target/helpdesk-console/internal/ports"
	"golang.org/x/oauth2"
)

// StorageTokenSource serves the persisted access token as a bearer token.
// Session storage is written in step with the session store, so it always
// reflects the current session.
type StorageTokenSource struct {
	Storage ports.TokenStorage
}

// Token implements oauth2.TokenSource.
func (s StorageTokenSource) Token() (*oauth2.Token, error) {
	if s.Storage == nil {
		return nil, apperrors.TokenInvalid("not signed in")
	}
	access, ok := s.Storage.Get(domainauth.StorageKeyToken)
	if !ok || access == "" {
		return nil, apperrors.TokenInvalid("not signed in")
	}

	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if exp, ok := AccessTokenExpiry(access); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

// AccessTokenExpiry reads the exp claim of a JWT access token without verifying its
// signature. The console cannot verify tokens; the value is informational only and
// never used to decide authentication.
func AccessTokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
