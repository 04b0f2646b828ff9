package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/target/helpdesk-console/config"
	"github.com/target/helpdesk-console/internal/adapters/dotenv"
	"github.com/target/helpdesk-console/internal/adapters/helpdeskapi"
	"github.com/target/helpdesk-console/internal/adapters/memory"
	redisadapter "github.com/target/helpdesk-console/internal/adapters/redis"
	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
	"github.com/target/helpdesk-console/internal/observability/statsd"
	"github.com/target/helpdesk-console/internal/ports"
	"github.com/target/helpdesk-console/internal/service"
)

// SessionConfig contains dependencies for building the console session.
type SessionConfig struct {
	Config *config.AppConfig
	Logger *slog.Logger

	// RedisClient is used by the redis storage driver. When nil, one is
	// connected from Config.Redis and closed by Session.Close.
	RedisClient redis.UniversalClient

	// Transport overrides the backend client's round tripper.
	Transport http.RoundTripper

	// Metrics overrides the StatsD sink built from Config.Metrics.
	Metrics statsd.Sink
}

// Session bundles the wired session store and its collaborators.
type Session struct {
	Storage ports.TokenStorage
	API     *helpdeskapi.Client
	Store   *service.SessionStore
	Guard   *service.NavigationGuard
	// Metrics is nil when metrics are disabled.
	Metrics statsd.Sink

	closers []func() error
}

// BuildSession wires token storage, the backend client, the session store and the
// navigation guard. A stored token starts a background profile fetch; wait on
// Session.Store.Ready() before relying on the user.
func BuildSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if cfg.Config == nil {
		return nil, errors.New("session config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	sess := &Session{}
	storage, closeStorage, err := BuildTokenStorage(ctx, TokenStorageConfig{
		Storage:     appCfg.Storage,
		Redis:       appCfg.Redis,
		RedisClient: cfg.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	if closeStorage != nil {
		sess.closers = append(sess.closers, closeStorage)
	}
	sess.Storage = storage

	sess.Metrics = cfg.Metrics
	if sess.Metrics == nil && appCfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(ctx, statsd.Config{
			Address: appCfg.Metrics.StatsdAddress,
			Prefix:  appCfg.Metrics.Prefix,
			Logger:  logger,
		})
		if err != nil {
			logger.ErrorContext(ctx, "failed to initialise statsd client", "error", err)
		} else {
			sess.Metrics = client
			sess.closers = append(sess.closers, client.Close)
		}
	}

	api, err := helpdeskapi.NewClient(helpdeskapi.ClientOptions{
		BaseURL:          appCfg.API.URL,
		Timeout:          appCfg.API.Timeout,
		ErrorMessagePath: appCfg.API.ErrorMessagePath,
		Tokens:           helpdeskapi.StorageTokenSource{Storage: storage},
		Transport:        cfg.Transport,
		Logger:           logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("build helpdesk api client: %w", err), sess.Close())
	}
	sess.API = api

	store, err := service.NewSessionStore(service.SessionStoreOptions{
		API:            api,
		Storage:        storage,
		Logger:         logger,
		Metrics:        sess.Metrics,
		StartupContext: ctx,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("build session store: %w", err), sess.Close())
	}
	api.SetRefresher(store)
	sess.Store = store

	unsubscribe := store.Subscribe(logStateTransitions(ctx, logger, store.Snapshot().State()))
	sess.closers = append(sess.closers, func() error {
		unsubscribe()
		return nil
	})

	sess.Guard = service.NewNavigationGuard(service.NavigationGuardOptions{
		LoginPath:       appCfg.Navigation.LoginPath,
		LandingPath:     appCfg.Navigation.LandingPath,
		StrictRoleCheck: appCfg.Navigation.StrictRoleCheck,
		Logger:          logger,
	})

	return sess, nil
}

// logStateTransitions returns a session subscriber that logs each change of the
// derived session state.
func logStateTransitions(ctx context.Context, logger *slog.Logger, initial domainauth.State) func(domainauth.Snapshot) {
	var mu sync.Mutex
	last := initial
	return func(snap domainauth.Snapshot) {
		next := snap.State()
		mu.Lock()
		prev := last
		last = next
		mu.Unlock()
		if prev == next {
			return
		}

		attrs := []any{"from", prev, "to", next}
		if snap.User != nil {
			attrs = append(attrs, "username", snap.User.Username, "role", snap.User.Role)
		}
		if snap.LastError != "" {
			attrs = append(attrs, "last_error", snap.LastError)
		}
		logger.InfoContext(ctx, "console session state changed", attrs...)
	}
}

// Close releases resources opened by BuildSession.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// TokenStorageConfig selects and configures the token storage driver.
type TokenStorageConfig struct {
	Storage     config.StorageConfig
	Redis       config.RedisConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildTokenStorage returns the configured storage driver. The returned close
// func is non-nil only when a Redis connection was opened here.
func BuildTokenStorage(ctx context.Context, cfg TokenStorageConfig) (ports.TokenStorage, func() error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.DebugContext(ctx, "using in-memory token storage")
		return memory.NewTokenStorage(), nil, nil

	case config.StorageRedis:
		client := cfg.RedisClient
		var closeFn func() error
		if client == nil {
			var err error
			client, err = ConnectRedis(ctx, RedisConnectConfig{RedisConfig: cfg.Redis, Logger: logger})
			if err != nil {
				return nil, nil, fmt.Errorf("connect token storage redis: %w", err)
			}
			closeFn = client.Close
		}
		logger.DebugContext(ctx, "using redis token storage", "prefix", cfg.Storage.RedisPrefix)
		return redisadapter.NewTokenStorageWithOptions(client, redisadapter.TokenStorageOptions{
			Prefix: cfg.Storage.RedisPrefix,
		}), closeFn, nil

	case config.StorageFile, "":
		fs, err := dotenv.NewTokenStorage(cfg.Storage.File)
		if err != nil {
			return nil, nil, fmt.Errorf("open token file: %w", err)
		}
		logger.DebugContext(ctx, "using file token storage", "path", fs.Path())
		return fs, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown token storage driver %q", cfg.Storage.Driver)
	}
}
