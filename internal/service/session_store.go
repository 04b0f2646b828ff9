package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
	apperrors "github.com/target/helpdesk-console/internal/errors"
	"github.com/target/helpdesk-console/internal/observability/metrics"
	"github.com/target/helpdesk-console/internal/observability/statsd"
	"github.com/target/helpdesk-console/internal/ports"
)

// SessionStoreOptions groups dependencies for SessionStore.
type SessionStoreOptions struct {
	API     ports.AuthAPI
	Storage ports.TokenStorage
	Logger  *slog.Logger
	Metrics statsd.Sink

	// StartupContext bounds the profile fetch triggered when a stored token is restored.
	// Defaults to context.Background().
	StartupContext context.Context
}

// SessionStore owns the console's credentials and user identity.
//
// Backend calls are never serialized against each other: two concurrent refreshes or
// logins both reach the backend and whichever finishes last determines the final state.
// The mutex only protects the fields and keeps storage writes in step with them.
type SessionStore struct {
	api     ports.AuthAPI
	storage ports.TokenStorage
	logger  *slog.Logger
	metrics statsd.Sink

	mu        sync.RWMutex
	tokens    domainauth.TokenPair
	user      *domainauth.User
	loading   bool
	lastError string

	subMu   sync.Mutex
	subs    map[uint64]func(domainauth.Snapshot)
	nextSub uint64

	ready chan struct{}
}

var (
	errMissingAPI     = errors.New("session store requires an auth API")
	errMissingStorage = errors.New("session store requires token storage")
)

const defaultLoginError = "Login failed"

// NewSessionStore constructs a SessionStore hydrated from storage. When a token is
// restored without a user, a profile fetch is started in the background; Ready is
// closed once it finishes.
func NewSessionStore(opts SessionStoreOptions) (*SessionStore, error) {
	if opts.API == nil {
		return nil, errMissingAPI
	}
	if opts.Storage == nil {
		return nil, errMissingStorage
	}

	s := &SessionStore{
		api:     opts.API,
		storage: opts.Storage,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		subs:    make(map[uint64]func(domainauth.Snapshot)),
		ready:   make(chan struct{}),
	}

	s.tokens.AccessToken, _ = opts.Storage.Get(domainauth.StorageKeyToken)
	s.tokens.RefreshToken, _ = opts.Storage.Get(domainauth.StorageKeyRefreshToken)

	// No user can be loaded yet at construction, so a restored token always
	// needs a profile.
	if s.tokens.AccessToken == "" {
		close(s.ready)
		return s, nil
	}

	ctx := opts.StartupContext
	if ctx == nil {
		ctx = context.Background()
	}
	s.log().DebugContext(ctx, "restored session token, fetching profile")
	go func() {
		defer close(s.ready)
		s.FetchProfile(ctx)
	}()

	return s, nil
}

func (s *SessionStore) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// record emits the outcome of a session operation started at start.
func (s *SessionStore) record(op string, start time.Time, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.EmitSession(s.metrics, metrics.SessionMetric{
		Operation: op,
		Result:    result,
		Duration:  time.Since(start),
		Err:       err,
	})
}

// Ready returns a channel closed once startup work has finished.
func (s *SessionStore) Ready() <-chan struct{} { return s.ready }

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() domainauth.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *SessionStore) snapshotLocked() domainauth.Snapshot {
	snap := domainauth.Snapshot{
		Tokens:    s.tokens,
		Loading:   s.loading,
		LastError: s.lastError,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// IsAuthenticated reports whether an access token is present.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken != ""
}

// Subscribe registers fn to receive a snapshot after every state change.
// Notifications are delivered synchronously on the goroutine that made the change.
func (s *SessionStore) Subscribe(fn func(domainauth.Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// mutate applies fn under the write lock and notifies subscribers with the result.
func (s *SessionStore) mutate(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *SessionStore) notify(snap domainauth.Snapshot) {
	s.subMu.Lock()
	fns := make([]func(domainauth.Snapshot), 0, len(s.subs))
	for id := uint64(0); id < s.nextSub; id++ {
		if fn, ok := s.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Login authenticates with the backend. On failure LastError is set, any prior session
// is left untouched, and the error is returned.
func (s *SessionStore) Login(ctx context.Context, creds domainauth.Credentials) error {
	start := time.Now()
	s.mutate(func() {
		s.loading = true
		s.lastError = ""
	})

	err := s.login(ctx, creds)
	s.record(metrics.OpLogin, start, err)

	s.mutate(func() {
		s.loading = false
		if err != nil {
			s.lastError = loginErrorMessage(err)
		}
	})
	if err != nil {
		s.log().InfoContext(ctx, "login failed",
			"username", creds.Username,
			"code", apperrors.GetCode(err),
			"error", err)
		return err
	}

	s.log().InfoContext(ctx, "login succeeded", "username", creds.Username)
	return nil
}

func (s *SessionStore) login(ctx context.Context, creds domainauth.Credentials) error {
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := validateAuthResponse(resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := s.establish(resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

func loginErrorMessage(err error) string {
	if msg := apperrors.Message(err); msg != "" {
		return msg
	}
	return defaultLoginError
}

func validateAuthResponse(resp domainauth.AuthResponse) error {
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return apperrors.Internal("The helpdesk server returned an incomplete token pair.")
	}
	return nil
}

// establish persists the pair and then replaces tokens and user in memory. If persisting
// fails the previously stored pair is written back and memory is not touched.
func (s *SessionStore) establish(resp domainauth.AuthResponse) error {
	user := resp.User
	var persistErr error

	s.mutate(func() {
		if err := s.persistLocked(resp.Tokens()); err != nil {
			if restoreErr := s.persistLocked(s.tokens); restoreErr != nil {
				err = errors.Join(err, fmt.Errorf("restore previous tokens: %w", restoreErr))
			}
			persistErr = err
			return
		}
		s.tokens = resp.Tokens()
		s.user = &user
	})

	if persistErr != nil {
		return apperrors.Wrap(persistErr, apperrors.ErrCodeInternal, "Unable to save the session.")
	}
	s.checkRole(user)
	return nil
}

// checkRole flags accounts whose role no route rule knows about. Such users can
// still open every route that is not role gated.
func (s *SessionStore) checkRole(user domainauth.User) {
	if !user.Role.Valid() {
		s.log().Warn("helpdesk user has an unrecognised role",
			"username", user.Username,
			"role", user.Role)
	}
}

func (s *SessionStore) persistLocked(pair domainauth.TokenPair) error {
	if pair.Empty() {
		return s.removeStoredLocked()
	}
	if err := s.storage.Set(domainauth.StorageKeyToken, pair.AccessToken); err != nil {
		return fmt.Errorf("store %s: %w", domainauth.StorageKeyToken, err)
	}
	if err := s.storage.Set(domainauth.StorageKeyRefreshToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("store %s: %w", domainauth.StorageKeyRefreshToken, err)
	}
	return nil
}

func (s *SessionStore) removeStoredLocked() error {
	return errors.Join(
		s.storage.Remove(domainauth.StorageKeyToken),
		s.storage.Remove(domainauth.StorageKeyRefreshToken),
	)
}

// Logout notifies the backend on a best-effort basis and then clears the session.
// It never fails.
func (s *SessionStore) Logout(ctx context.Context) {
	start := time.Now()
	err := s.api.Logout(ctx)
	s.record(metrics.OpLogout, start, err)
	if err != nil {
		s.log().WarnContext(ctx, "logout notification failed", "error", err)
	}
	s.ClearAuth()
}

// ClearAuth zeroes the token pair and user and removes both tokens from storage.
// It is idempotent.
func (s *SessionStore) ClearAuth() {
	var removeErr error
	s.mutate(func() {
		s.tokens = domainauth.TokenPair{}
		s.user = nil
		removeErr = s.removeStoredLocked()
	})
	if removeErr != nil {
		s.log().Warn("remove stored tokens failed", "error", removeErr)
	}
}

// RefreshAccessToken exchanges the refresh token for a new pair and returns the new
// access token. Without a refresh token, or on any failure, the session is cleared
// and ok is false.
func (s *SessionStore) RefreshAccessToken(ctx context.Context) (accessToken string, ok bool) {
	s.mu.RLock()
	refreshToken := s.tokens.RefreshToken
	s.mu.RUnlock()

	if refreshToken == "" {
		metrics.EmitSession(s.metrics, metrics.SessionMetric{Operation: metrics.OpRefresh, Result: metrics.ResultNoop})
		s.ClearAuth()
		return "", false
	}

	start := time.Now()
	resp, err := s.api.Refresh(ctx, refreshToken)
	if err == nil {
		err = validateAuthResponse(resp)
	}
	if err == nil {
		err = s.establish(resp)
	}
	s.record(metrics.OpRefresh, start, err)
	if err != nil {
		s.log().InfoContext(ctx, "token refresh failed, clearing session",
			"code", apperrors.GetCode(err),
			"error", err)
		s.ClearAuth()
		return "", false
	}

	s.log().DebugContext(ctx, "access token refreshed")
	return resp.AccessToken, true
}

// FetchProfile loads the current user. It is a no-op without an access token; any
// failure clears the whole session.
func (s *SessionStore) FetchProfile(ctx context.Context) {
	if !s.IsAuthenticated() {
		return
	}

	start := time.Now()
	user, err := s.api.Me(ctx)
	s.record(metrics.OpProfile, start, err)
	if err != nil {
		s.log().InfoContext(ctx, "profile fetch failed, clearing session",
			"code", apperrors.GetCode(err),
			"error", err)
		s.ClearAuth()
		return
	}

	s.mutate(func() { s.user = &user })
	s.checkRole(user)
}
