package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/helpdesk-console/config"
	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
)

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

// newBackend serves the auth endpoints for a single ADMIN account.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	access := signedToken(t, "access-1")
	refreshed := signedToken(t, "access-2")
	user := map[string]any{"id": "u-1", "username": "admin", "fullName": "Ada Admin", "role": "ADMIN", "isActive": true}
	var mu sync.Mutex
	current := access
	token := func() string {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	write := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		assert.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds domainauth.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Password != "secret" {
			write(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
			return
		}
		write(w, http.StatusOK, map[string]any{"accessToken": token(), "refreshToken": "r-1", "user": user})
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		current = refreshed
		mu.Unlock()
		write(w, http.StatusOK, map[string]any{"accessToken": refreshed, "refreshToken": "r-2", "user": user})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token() {
			write(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
			return
		}
		write(w, http.StatusOK, user)
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testCLI struct {
	t   *testing.T
	cfg config.AppConfig
	out bytes.Buffer
}

func newTestCLI(t *testing.T, apiURL string) *testCLI {
	t.Helper()
	cfg := config.AppConfig{
		API: config.APIConfig{URL: apiURL + "/api", Timeout: 2 * time.Second},
		Storage: config.StorageConfig{
			Driver: config.StorageFile,
			File:   filepath.Join(t.TempDir(), "session.env"),
		},
	}
	cfg.Sanitize()
	return &testCLI{t: t, cfg: cfg}
}

// run executes one command as a fresh process would, sharing only the token file.
func (c *testCLI) run(stdin string, name string, args ...string) (string, error) {
	c.t.Helper()
	c.out.Reset()
	cmd, ok := commands()[name]
	require.True(c.t, ok, "unknown command %s", name)

	err := cmd.run(&commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: c.cfg,
		In:     strings.NewReader(stdin),
		Out:    &c.out,
	}, args)
	return c.out.String(), err
}

func TestPrintUsageListsCommands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	assert.Contains(t, out, "Usage: helpdesk-admin <command> [flags]")
	for name := range commands() {
		assert.Contains(t, out, "  "+name)
	}
	assert.Less(t, strings.Index(out, "login"), strings.Index(out, "whoami"))
}

func TestParseLoginFlags(t *testing.T) {
	opts, err := parseLoginFlags([]string{"-u", " admin ", "--password-stdin"})
	require.NoError(t, err)
	assert.Equal(t, "admin", opts.Username)
	assert.True(t, opts.PasswordStdin)

	_, err = parseLoginFlags(nil)
	require.ErrorContains(t, err, "--username is required")

	_, err = parseLoginFlags([]string{"--bogus"})
	require.Error(t, err)
}

func TestReadPassword(t *testing.T) {
	cmdCtx := &commandContext{In: strings.NewReader("hunter2\r\n")}
	pw, err := readPassword(cmdCtx, loginOptions{PasswordStdin: true})
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)

	cmdCtx = &commandContext{In: strings.NewReader("")}
	_, err = readPassword(cmdCtx, loginOptions{PasswordStdin: true})
	require.Error(t, err)

	cmdCtx = &commandContext{In: strings.NewReader("x\n"), IsTerminal: false}
	_, err = readPassword(cmdCtx, loginOptions{})
	require.ErrorContains(t, err, "--password-stdin")
}

func TestSessionLifecycle(t *testing.T) {
	cli := newTestCLI(t, newBackend(t).URL)

	out, err := cli.run("", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", out)

	out, err = cli.run("secret\n", "login", "--username", "admin", "--password-stdin")
	require.NoError(t, err)
	assert.Equal(t, "Signed in as admin (ADMIN)\n", out)

	out, err = cli.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "State:    authenticated\n")
	assert.Contains(t, out, "User:     admin (Ada Admin)\n")
	assert.Contains(t, out, "Role:     ADMIN\n")
	assert.Contains(t, out, "Expires:  ")
	assert.NotContains(t, out, "unknown")

	out, err = cli.run("", "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "Access token refreshed\n")

	out, err = cli.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "State:    authenticated\n")

	out, err = cli.run("", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Signed out\n", out)

	out, err = cli.run("", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", out)

	out, err = cli.run("", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", out)
}

func TestLoginRejected(t *testing.T) {
	cli := newTestCLI(t, newBackend(t).URL)

	_, err := cli.run("wrong\n", "login", "-u", "admin", "--password-stdin")
	require.Error(t, err)

	out, err := cli.run("", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", out)
}

func TestRefreshWithoutSession(t *testing.T) {
	cli := newTestCLI(t, newBackend(t).URL)

	_, err := cli.run("", "refresh")
	require.ErrorContains(t, err, "token refresh failed")
}

func TestNavigate(t *testing.T) {
	cli := newTestCLI(t, newBackend(t).URL)

	out, err := cli.run("", "navigate", "/tickets/42")
	require.NoError(t, err)
	assert.Contains(t, out, "redirect -> /login?")
	assert.Contains(t, out, "view: login /login?")

	_, err = cli.run("secret\n", "login", "-u", "admin", "--password-stdin")
	require.NoError(t, err)

	out, err = cli.run("", "navigate", "/tickets/42")
	require.NoError(t, err)
	assert.Equal(t, "view: ticket-detail /tickets/42\n  id=42\n", out)

	out, err = cli.run("", "navigate", "/")
	require.NoError(t, err)
	assert.Equal(t, "redirect -> /dashboard\nview: dashboard /dashboard\n", out)

	out, err = cli.run("", "navigate", "/login")
	require.NoError(t, err)
	assert.Equal(t, "redirect -> /dashboard\nview: dashboard /dashboard\n", out)

	_, err = cli.run("", "navigate")
	require.ErrorContains(t, err, "usage: helpdesk-admin navigate <path>")
}
