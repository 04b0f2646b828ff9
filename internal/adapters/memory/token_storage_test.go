package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/helpdesk-console/internal/ports"
)

var _ ports.TokenStorage = (*TokenStorage)(nil)

func TestTokenStorage_SetGetRemove(t *testing.T) {
	s := NewTokenStorage()

	_, ok := s.Get("token")
	assert.False(t, ok)

	require.NoError(t, s.Set("token", "abc"))
	v, ok := s.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Remove("token"))
	require.NoError(t, s.Remove("token"))
	_, ok = s.Get("token")
	assert.False(t, ok)
}
