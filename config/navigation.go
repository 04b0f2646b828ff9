package config

import "strings"

// NavigationConfig controls the route guard.
type NavigationConfig struct {
	LoginPath   string `env:"LOGIN_PATH"   envDefault:"/login"`
	LandingPath string `env:"LANDING_PATH" envDefault:"/dashboard"`

	// StrictRoleCheck redirects role-gated routes to the landing page while the
	// user profile is still loading, instead of letting them through.
	StrictRoleCheck bool `env:"STRICT_ROLE_CHECK" envDefault:"false"`
}

// Sanitize normalises guard paths to absolute paths.
func (n *NavigationConfig) Sanitize() {
	n.LoginPath = absPath(n.LoginPath, "/login")
	n.LandingPath = absPath(n.LandingPath, "/dashboard")
}

func absPath(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return fallback
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
