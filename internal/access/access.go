// Package access decides what a request may see given its session state, and maps that
// decision onto HTTP for page routes and for the JSON API.
package access

import (
	"strings"

	"github.com/frahmantamala/zhar/internal/core/user"
	"github.com/frahmantamala/zhar/internal/session"
)

type Outcome int

const (
	OutcomeRender Outcome = iota
	OutcomeRedirectLogin
	OutcomeRedirectHome
	OutcomeLoading
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRender:
		return "render"
	case OutcomeRedirectLogin:
		return "redirect_login"
	case OutcomeRedirectHome:
		return "redirect_home"
	case OutcomeLoading:
		return "loading"
	}
	return "unknown"
}

// Decision is the result of Decide. Location is set for the redirect outcomes.
type Decision struct {
	Outcome  Outcome
	Location string
}

const LoginPath = "/login"

// RoleSet is the set of roles a route admits.
type RoleSet struct {
	roles map[user.Role]struct{}
}

func Roles(roles ...user.Role) RoleSet {
	set := RoleSet{roles: make(map[user.Role]struct{}, len(roles))}
	for _, r := range roles {
		set.roles[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Allows(r user.Role) bool {
	_, ok := s.roles[r]
	return ok
}

func (s RoleSet) String() string {
	names := make([]string, 0, len(s.roles))
	for _, r := range user.Roles {
		if s.Allows(r) {
			names = append(names, string(r))
		}
	}
	return strings.Join(names, ",")
}

// Decide maps a session state and the roles a route admits to what the caller should do.
// A role mismatch is a redirect to the caller's own home, never an error.
func Decide(state session.State, allowed RoleSet) Decision {
	if state.Loading() {
		return Decision{Outcome: OutcomeLoading}
	}
	switch state.Status {
	case session.StatusNoProfile:
		return Decision{Outcome: OutcomeLoading}
	case session.StatusReady:
		u, ok := state.User()
		if !ok {
			return Decision{Outcome: OutcomeLoading}
		}
		if !allowed.Allows(u.Role) {
			return Decision{Outcome: OutcomeRedirectHome, Location: u.Role.Home()}
		}
		return Decision{Outcome: OutcomeRender}
	default:
		return Decision{Outcome: OutcomeRedirectLogin, Location: LoginPath}
	}
}

var (
	Staff  = Roles(user.RoleEmployee, user.RoleLead, user.RoleAdmin)
	Leads  = Roles(user.RoleLead, user.RoleAdmin)
	Admins = Roles(user.RoleAdmin)
)

type PageRoute struct {
	Path    string
	Allowed RoleSet
}

// PageRoutes lists every role-gated page.
var PageRoutes = []PageRoute{
	{Path: "/dashboard", Allowed: Staff},
	{Path: "/projects", Allowed: Staff},
	{Path: "/profile", Allowed: Staff},
	{Path: "/leaderboard", Allowed: Staff},

	{Path: "/lead", Allowed: Leads},
	{Path: "/lead/projects", Allowed: Leads},
	{Path: "/lead/team", Allowed: Leads},
	{Path: "/lead/settings", Allowed: Leads},

	{Path: "/admin", Allowed: Admins},
	{Path: "/admin/employees", Allowed: Admins},
	{Path: "/admin/projects", Allowed: Admins},
	{Path: "/admin/approvals", Allowed: Admins},
	{Path: "/admin/settings", Allowed: Admins},
}

// AllowedFor returns the role set of a page path.
func AllowedFor(path string) (RoleSet, bool) {
	for _, route := range PageRoutes {
		if route.Path == path {
			return route.Allowed, true
		}
	}
	return RoleSet{}, false
}
