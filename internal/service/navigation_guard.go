package service

import (
	"log/slog"
	"net/url"

	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
	"github.com/target/helpdesk-console/internal/domain/navigation"
)

const (
	DefaultLoginPath     = "/login"
	DefaultLandingPath   = "/dashboard"
	DefaultRedirectParam = "redirect"
)

// NavigationGuardOptions configures NavigationGuard.
type NavigationGuardOptions struct {
	LoginPath     string
	LandingPath   string
	RedirectParam string

	// StrictRoleCheck denies role-gated routes while the user profile is still loading
	// instead of letting them through until it resolves.
	StrictRoleCheck bool

	Logger *slog.Logger
}

// NavigationGuard decides whether a route transition may proceed.
// It never blocks and only reads the snapshot it is given.
type NavigationGuard struct {
	loginPath       string
	landingPath     string
	redirectParam   string
	strictRoleCheck bool
	logger          *slog.Logger
}

// NewNavigationGuard constructs a NavigationGuard, filling defaults for empty paths.
func NewNavigationGuard(opts NavigationGuardOptions) *NavigationGuard {
	g := &NavigationGuard{
		loginPath:       opts.LoginPath,
		landingPath:     opts.LandingPath,
		redirectParam:   opts.RedirectParam,
		strictRoleCheck: opts.StrictRoleCheck,
		logger:          opts.Logger,
	}
	if g.loginPath == "" {
		g.loginPath = DefaultLoginPath
	}
	if g.landingPath == "" {
		g.landingPath = DefaultLandingPath
	}
	if g.redirectParam == "" {
		g.redirectParam = DefaultRedirectParam
	}
	return g
}

func (g *NavigationGuard) log() *slog.Logger {
	if g != nil && g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

// LoginPath returns the route unauthenticated users are sent to.
func (g *NavigationGuard) LoginPath() string { return g.loginPath }

// LandingPath returns the default route for authenticated users.
func (g *NavigationGuard) LandingPath() string { return g.landingPath }

// RedirectParam returns the query parameter carrying the originally requested path.
func (g *NavigationGuard) RedirectParam() string { return g.redirectParam }

// Decide evaluates the access rule of target against sess. Checks run in a fixed
// order and the first match wins:
//  1. auth required but not authenticated: redirect to login with the requested path
//  2. guest-only while authenticated: redirect to the landing route
//  3. role-gated and the loaded user's role is not allowed: redirect to the landing route
//  4. proceed
func (g *NavigationGuard) Decide(target navigation.Target, sess domainauth.Snapshot) navigation.Decision {
	rule := target.Rule
	authenticated := sess.IsAuthenticated()

	if rule.RequiresAuth && !authenticated {
		g.log().Debug("navigation requires login", "path", target.FullPath)
		return navigation.RedirectTo(g.loginPath, url.Values{g.redirectParam: {target.FullPath}})
	}

	if rule.GuestOnly && authenticated {
		return navigation.RedirectTo(g.landingPath, nil)
	}

	if rule.RoleGated() {
		if sess.User == nil {
			if g.strictRoleCheck && authenticated {
				g.log().Debug("navigation denied until profile loads", "path", target.FullPath)
				return navigation.RedirectTo(g.landingPath, nil)
			}
		} else if !rule.Allows(sess.User.Role) {
			// Forbidden routes look like any other unknown destination.
			g.log().Debug("navigation role mismatch",
				"path", target.FullPath,
				"role", sess.User.Role)
			return navigation.RedirectTo(g.landingPath, nil)
		}
	}

	return navigation.ProceedDecision()
}
