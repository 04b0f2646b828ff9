package helpdeskapi

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
	apperrors "github.com/target/helpdesk-console/internal/errors"
	authmocks "github.com/target/helpdesk-console/internal/mocks/auth"
)

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestAccessTokenExpiry_ReadsExpClaim(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	tok := signedToken(t, jwt.RegisteredClaims{Subject: "u-1", ExpiresAt: jwt.NewNumericDate(exp)})

	got, ok := AccessTokenExpiry(tok)

	require.True(t, ok)
	assert.True(t, got.Equal(exp))
}

func TestAccessTokenExpiry_ExpiredTokenStillDecodes(t *testing.T) {
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	tok := signedToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})

	got, ok := AccessTokenExpiry(tok)

	require.True(t, ok)
	assert.True(t, got.Equal(exp))
}

func TestAccessTokenExpiry_Unparseable(t *testing.T) {
	for _, tok := range []string{"", "opaque-token", "a.b.c"} {
		_, ok := AccessTokenExpiry(tok)
		assert.False(t, ok, tok)
	}

	noExp := signedToken(t, jwt.RegisteredClaims{Subject: "u-1"})
	_, ok := AccessTokenExpiry(noExp)
	assert.False(t, ok)
}

func TestStorageTokenSource(t *testing.T) {
	storage := authmocks.NewMemoryTokenStorage(nil)
	src := StorageTokenSource{Storage: storage}

	_, err := src.Token()
	require.Error(t, err)
	assert.True(t, apperrors.IsTokenInvalid(err))

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	access := signedToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	require.NoError(t, storage.Set(domainauth.StorageKeyToken, access))

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, access, tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())
	assert.True(t, tok.Expiry.Equal(exp))

	require.NoError(t, storage.Set(domainauth.StorageKeyToken, "opaque"))
	tok, err = src.Token()
	require.NoError(t, err)
	assert.True(t, tok.Expiry.IsZero())
}
