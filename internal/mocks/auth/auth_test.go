package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
	apperrors "github.com/target/helpdesk-console/internal/errors"
)

func TestMockAuthAPI_Login_Defaults(t *testing.T) {
	api := NewMockAuthAPI()
	ctx := context.Background()

	resp, err := api.Login(ctx, domainauth.Credentials{Username: "agent", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "access-1", resp.AccessToken)
	assert.Equal(t, "refresh-1", resp.RefreshToken)
	assert.Equal(t, domainauth.RoleAgent, resp.User.Role)

	// Second issuance increments counters
	resp2, err := api.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "access-2", resp2.AccessToken)
	assert.Equal(t, 1, api.Calls("Login"))
	assert.Equal(t, 1, api.Calls("Refresh"))
}

func TestMockAuthAPI_Login_WrongPassword(t *testing.T) {
	api := NewMockAuthAPI()

	_, err := api.Login(context.Background(), domainauth.Credentials{Username: "agent", Password: "nope"})

	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidCredentials(err))
}

func TestMockAuthAPI_FuncOverrides(t *testing.T) {
	api := &MockAuthAPI{
		MeFunc: func(context.Context) (domainauth.User, error) {
			return domainauth.User{ID: "u-9", Role: domainauth.RoleAdmin}, nil
		},
	}

	user, err := api.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-9", user.ID)
	assert.NoError(t, api.Logout(context.Background()))
	assert.Equal(t, 1, api.Calls("Logout"))
}

func TestMemoryTokenStorage(t *testing.T) {
	s := NewMemoryTokenStorage(map[string]string{"token": "a"})

	v, ok := s.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	require.NoError(t, s.Set("refreshToken", "r"))
	assert.Equal(t, 2, s.Len())
	require.NoError(t, s.Remove("token"))
	require.NoError(t, s.Remove("token"))
	_, ok = s.Get("token")
	assert.False(t, ok)

	s.SetErr = ErrStorageUnavailable
	assert.ErrorIs(t, s.Set("token", "b"), ErrStorageUnavailable)
}
