package navigation

// Package navigation contains the route access metadata and guard decisions
// exchanged between the console router and the navigation guard.

import (
	"net/url"
	"slices"

	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
)

// AccessRule is the static access metadata attached to a navigable path.
// A nil AllowedRoles means any authenticated role may enter.
type AccessRule struct {
	RequiresAuth bool
	GuestOnly    bool
	AllowedRoles []domainauth.Role
}

// RoleGated reports whether the rule restricts entry to specific roles.
func (r AccessRule) RoleGated() bool { return r.AllowedRoles != nil }

// Allows reports whether role is a member of the allowed set.
func (r AccessRule) Allows(role domainauth.Role) bool {
	return !r.RoleGated() || slices.Contains(r.AllowedRoles, role)
}

// Target describes the route a navigation is heading to.
type Target struct {
	// FullPath is the requested path including its query string.
	FullPath string
	Rule     AccessRule
}

// DecisionKind is either Proceed or Redirect.
type DecisionKind int

const (
	Proceed DecisionKind = iota
	Redirect
)

func (k DecisionKind) String() string {
	if k == Redirect {
		return "redirect"
	}
	return "proceed"
}

// Decision is the outcome of a guard evaluation.
type Decision struct {
	Kind  DecisionKind
	Path  string
	Query url.Values
}

// ProceedDecision lets the navigation continue unmodified.
func ProceedDecision() Decision { return Decision{Kind: Proceed} }

// RedirectTo sends the navigation to path with an optional query.
func RedirectTo(path string, query url.Values) Decision {
	return Decision{Kind: Redirect, Path: path, Query: query}
}

// Location renders a redirect decision as a relative URL. It returns "" for Proceed.
func (d Decision) Location() string {
	if d.Kind != Redirect {
		return ""
	}
	if len(d.Query) == 0 {
		return d.Path
	}
	return d.Path + "?" + d.Query.Encode()
}
