package user

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles a profile can hold.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleLead     Role = "lead"
	RoleEmployee Role = "employee"
)

// Roles lists every role, most privileged first.
var Roles = []Role{RoleAdmin, RoleLead, RoleEmployee}

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleLead:
		return RoleLead, nil
	case RoleEmployee:
		return RoleEmployee, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Home is the landing route for the role.
func (r Role) Home() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleLead:
		return "/lead"
	case RoleEmployee:
		return "/dashboard"
	}
	panic(fmt.Sprintf("user: no home route for role %q", string(r)))
}

func (r Role) String() string {
	return string(r)
}

// User is the authenticated principal carried in request context.
type User struct {
	ID        string
	Email     string
	FullName  string
	Role      Role
	Sector    *string
	SessionID string
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
