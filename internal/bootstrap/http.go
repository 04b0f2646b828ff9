package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/target/helpdesk-console/config"
	httpx "github.com/target/helpdesk-console/internal/http"
	"golang.org/x/sync/errgroup"
)

// HTTPServerConfig contains configuration for the console HTTP server.
type HTTPServerConfig struct {
	Config  *config.AppConfig
	Session *Session
	Logger  *slog.Logger
}

// BuildHTTPHandler assembles the console router with its middleware.
// Order: Recover -> Logging -> Router.
func BuildHTTPHandler(cfg HTTPServerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var csrf httpx.CSRFConfig
	if cfg.Config != nil {
		csrf.CookieDomain = cfg.Config.HTTP.CSRFCookieDomain
	}

	h := httpx.NewRouter(httpx.RouterOptions{
		Session: cfg.Session.Store,
		Guard:   cfg.Session.Guard,
		Logger:  logger,
		Metrics: cfg.Session.Metrics,
		CSRF:    csrf,
	})
	h = httpx.Logging(logger)(h)
	h = httpx.Recover(logger)(h)
	return h
}

// NewHTTPServer creates the console HTTP server without starting it.
func NewHTTPServer(cfg HTTPServerConfig) *http.Server {
	httpCfg := config.HTTPConfig{}
	if cfg.Config != nil {
		httpCfg = cfg.Config.HTTP
	}
	httpCfg.Sanitize()

	return &http.Server{
		Addr:              httpCfg.Addr,
		Handler:           BuildHTTPHandler(cfg),
		ReadHeaderTimeout: httpCfg.ReadHeaderTimeout,
	}
}

// ServeConfig contains dependencies for RunHTTPServer.
type ServeConfig struct {
	Server   *http.Server
	Listener net.Listener
	HTTP     config.HTTPConfig
	Logger   *slog.Logger
}

// RunHTTPServer serves until ctx is canceled, then shuts the server down
// gracefully. A nil Listener listens on Server.Addr.
func RunHTTPServer(ctx context.Context, cfg ServeConfig) error {
	if cfg.Server == nil {
		return errors.New("http server is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpCfg := cfg.HTTP
	httpCfg.Sanitize()

	ln := cfg.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := cfg.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpCfg.ShutdownTimeout)
		defer cancel()
		if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})
	return g.Wait()
}
