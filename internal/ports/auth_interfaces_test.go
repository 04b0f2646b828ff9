package ports_test

import (
	"testing"

	mocks "github.com/target/helpdesk-console/internal/mocks/auth"
	"github.com/target/helpdesk-console/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthAPI = (*mocks.MockAuthAPI)(nil)
	var _ ports.TokenStorage = (*mocks.MemoryTokenStorage)(nil)
}
