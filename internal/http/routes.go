package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
	"github.com/target/helpdesk-console/internal/domain/navigation"
	"github.com/target/helpdesk-console/internal/observability/statsd"
)

// SessionStore is the session surface used by the console server.
type SessionStore interface {
	Snapshot() domainauth.Snapshot
	Login(ctx context.Context, creds domainauth.Credentials) error
	Logout(ctx context.Context)
	Ready() <-chan struct{}
}

// NavigationGuard decides route transitions.
type NavigationGuard interface {
	Decide(target navigation.Target, sess domainauth.Snapshot) navigation.Decision
	LoginPath() string
	LandingPath() string
	RedirectParam() string
}

// Route is one navigable console route.
type Route struct {
	Name string
	// Path is a gorilla/mux path template.
	Path string
	Rule navigation.AccessRule
	// RedirectTo makes the route an alias; it is followed before any guard runs.
	RedirectTo string
}

// ConsoleRoutes returns the console's route table with the login page served at
// loginPath and the root path aliased to landingPath.
func ConsoleRoutes(loginPath, landingPath string) []Route {
	authed := navigation.AccessRule{RequiresAuth: true}
	roles := func(rs ...domainauth.Role) navigation.AccessRule {
		return navigation.AccessRule{RequiresAuth: true, AllowedRoles: rs}
	}

	return []Route{
		{Name: RouteLogin, Path: loginPath, Rule: navigation.AccessRule{GuestOnly: true}},
		{Name: RouteHome, Path: "/", RedirectTo: landingPath},
		{Name: RouteDashboard, Path: "/dashboard", Rule: authed},
		{Name: RouteTickets, Path: "/tickets", Rule: authed},
		// Registered before the {id} route so "new" is not captured as an id.
		{Name: RouteCreateTicket, Path: "/tickets/new", Rule: authed},
		{Name: RouteTicketDetail, Path: "/tickets/{id}", Rule: authed},
		{Name: RouteUsers, Path: "/users", Rule: roles(domainauth.RoleAdmin, domainauth.RoleSupervisor)},
		{Name: RouteCategories, Path: "/categories", Rule: roles(domainauth.RoleAdmin)},
		{Name: RouteProfile, Path: "/profile", Rule: authed},
		{Name: RouteSettings, Path: "/settings", Rule: roles(domainauth.RoleAdmin)},
	}
}

// RouteTable resolves paths to console routes.
type RouteTable struct {
	router   *mux.Router
	byName   map[string]Route
	fallback string
}

// Resolution is a matched route plus its path parameters.
type Resolution struct {
	Route    Route
	Params   map[string]string
	FullPath string
}

// NewRouteTable indexes routes. Unknown paths resolve to fallback.
func NewRouteTable(routes []Route, fallback string) *RouteTable {
	t := &RouteTable{
		router:   mux.NewRouter(),
		byName:   make(map[string]Route, len(routes)),
		fallback: fallback,
	}
	for _, rt := range routes {
		t.byName[rt.Name] = rt
		t.router.NewRoute().Name(rt.Name).Path(rt.Path)
	}
	return t
}

// Route returns the route registered under name.
func (t *RouteTable) Route(name string) (Route, bool) {
	rt, ok := t.byName[name]
	return rt, ok
}

// Resolve matches rawPath, which may carry a query string. ok is false for
// unknown paths.
func (t *RouteTable) Resolve(rawPath string) (Resolution, bool) {
	u, err := url.Parse(rawPath)
	if err != nil {
		return Resolution{}, false
	}
	if u.Path == "" {
		u.Path = "/"
	}
	req := &http.Request{Method: http.MethodGet, URL: u}

	var match mux.RouteMatch
	if !t.router.Match(req, &match) || match.Route == nil {
		return Resolution{}, false
	}
	rt, ok := t.byName[match.Route.GetName()]
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Route: rt, Params: match.Vars, FullPath: u.RequestURI()}, true
}

// NavigationResult is the outcome of following a navigation to its final route.
type NavigationResult struct {
	Resolution Resolution
	// Redirects lists every intermediate location, in order.
	Redirects []string
}

// Navigate resolves rawPath and follows aliases, unknown-path fallbacks and guard
// redirects until a route is allowed to render.
func (t *RouteTable) Navigate(rawPath string, guard NavigationGuard, snap domainauth.Snapshot) NavigationResult {
	var res NavigationResult
	next := rawPath

	for range maxNavigationHops {
		resolved, ok := t.Resolve(next)
		switch {
		case !ok:
			next = t.fallback
		case resolved.Route.RedirectTo != "":
			next = resolved.Route.RedirectTo
		default:
			decision := guard.Decide(navigation.Target{FullPath: resolved.FullPath, Rule: resolved.Route.Rule}, snap)
			if decision.Kind == navigation.Proceed {
				res.Resolution = resolved
				return res
			}
			next = decision.Location()
		}
		res.Redirects = append(res.Redirects, next)
	}

	// A redirect loop means the table is misconfigured; land on the fallback as-is.
	resolved, _ := t.Resolve(t.fallback)
	res.Resolution = resolved
	return res
}

// RouterOptions holds the dependencies of the console router.
type RouterOptions struct {
	Session SessionStore
	Guard   NavigationGuard
	Routes  []Route
	Logger  *slog.Logger
	Metrics statsd.Sink
	CSRF    CSRFConfig
}

// NewRouter creates the console HTTP router: guarded view routes, the login and
// logout form endpoints, the session endpoint and health checks. Every matched
// route issues a CSRF cookie and the POST endpoints require it back.
func NewRouter(opts RouterOptions) http.Handler {
	routes := opts.Routes
	if routes == nil {
		routes = ConsoleRoutes(opts.Guard.LoginPath(), opts.Guard.LandingPath())
	}
	table := NewRouteTable(routes, opts.Guard.LandingPath())

	r := mux.NewRouter()
	r.Use(CSRFProtection(opts.CSRF))

	auth := &AuthHandlers{Session: opts.Session, Guard: opts.Guard, Logger: opts.Logger}
	views := &ViewHandlers{Session: opts.Session}

	r.HandleFunc("/healthz", healthHandler(opts.Session.Ready())).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/session", auth.Status).Methods(http.MethodGet)
	r.HandleFunc(opts.Guard.LoginPath(), auth.Login).Methods(http.MethodPost)
	r.HandleFunc("/logout", auth.Logout).Methods(http.MethodPost)

	pages := r.Methods(http.MethodGet, http.MethodHead).Subrouter()
	pages.Use(Guard(GuardOptions{
		Table:   table,
		Guard:   opts.Guard,
		Session: opts.Session,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	}))
	for _, rt := range routes {
		if rt.RedirectTo != "" {
			pages.Handle(rt.Path, http.RedirectHandler(rt.RedirectTo, http.StatusFound)).Name(rt.Name)
			continue
		}
		pages.HandleFunc(rt.Path, views.Render).Name(rt.Name)
	}

	r.NotFoundHandler = http.RedirectHandler(opts.Guard.LandingPath(), http.StatusFound)
	return r
}
