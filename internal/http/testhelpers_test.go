package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
	authmocks "github.com/target/helpdesk-console/internal/mocks/auth"
	"github.com/target/helpdesk-console/internal/service"
)

type consoleFixture struct {
	api     *authmocks.MockAuthAPI
	storage *authmocks.MemoryTokenStorage
	store   *service.SessionStore
	guard   *service.NavigationGuard
	handler http.Handler
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newConsoleFixture(t *testing.T, user domainauth.User) *consoleFixture {
	t.Helper()
	api := authmocks.NewMockAuthAPI()
	if user.ID != "" {
		api.DefaultUser = user
	}
	storage := authmocks.NewMemoryTokenStorage(nil)
	store, err := service.NewSessionStore(service.SessionStoreOptions{
		API:     api,
		Storage: storage,
		Logger:  discardLogger(),
	})
	require.NoError(t, err)
	guard := service.NewNavigationGuard(service.NavigationGuardOptions{Logger: discardLogger()})

	return &consoleFixture{
		api:     api,
		storage: storage,
		store:   store,
		guard:   guard,
		handler: NewRouter(RouterOptions{Session: store, Guard: guard, Logger: discardLogger()}),
	}
}

func (f *consoleFixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Login(context.Background(), domainauth.Credentials{Username: "agent", Password: "secret"}))
}

func noRedirectClient() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func userWithRole(role domainauth.Role) domainauth.User {
	u := authmocks.DefaultUser()
	u.Role = role
	return u
}
