package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/target/helpdesk-console/internal/domain/navigation"
	"github.com/target/helpdesk-console/internal/observability/metrics"
	"github.com/target/helpdesk-console/internal/observability/statsd"
)

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// RequestIDHeader carries the request correlation id on console responses.
const RequestIDHeader = "X-Request-ID"

// Logging returns a middleware that logs HTTP requests and responses. It echoes
// the caller's X-Request-ID, or a fresh one, on the response.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = loggerOrDefault(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > 128 {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.String("request_id", requestID),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = loggerOrDefault(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("request_id", w.Header().Get(RequestIDHeader)),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// GuardOptions groups dependencies for the Guard middleware.
type GuardOptions struct {
	Table   *RouteTable
	Guard   NavigationGuard
	Session SessionStore
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Guard returns a mux middleware that consults the navigation guard before a
// console route renders. Redirect decisions become 302 responses; routes that
// are not part of the table pass through untouched.
func Guard(opts GuardOptions) mux.MiddlewareFunc {
	logger := loggerOrDefault(opts.Logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current := mux.CurrentRoute(r)
			if current == nil {
				next.ServeHTTP(w, r)
				return
			}
			rt, ok := opts.Table.Route(current.GetName())
			if !ok || rt.RedirectTo != "" {
				next.ServeHTTP(w, r)
				return
			}

			target := navigation.Target{FullPath: r.URL.RequestURI(), Rule: rt.Rule}
			decision := opts.Guard.Decide(target, opts.Session.Snapshot())
			metrics.EmitNavigation(opts.Metrics, metrics.NavigationMetric{Route: rt.Name, Decision: decision.Kind.String()})
			if decision.Kind == navigation.Redirect {
				logger.DebugContext(r.Context(), "navigation redirected",
					"route", rt.Name,
					"from", target.FullPath,
					"to", decision.Location())
				http.Redirect(w, r, decision.Location(), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
