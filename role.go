package authcore

import "fmt"

// Role is the closed set of authorization levels. Roles are ordered:
// a role satisfies a requirement when its level is greater than or equal
// to the required level, so admins pass user-gated routes.
type Role uint8

const (
	// RoleUser is the default role assigned at registration.
	RoleUser Role = iota
	// RoleAdmin grants access to admin-gated routes.
	RoleAdmin
)

const (
	roleUserName  = "user"
	roleAdminName = "admin"
)

// ParseRole maps a stored role string onto the closed enum. Unknown
// strings are rejected rather than defaulting, so a typo in stored data
// cannot silently change authorization behavior.
func ParseRole(s string) (Role, error) {
	switch s {
	case roleUserName:
		return RoleUser, nil
	case roleAdminName:
		return RoleAdmin, nil
	default:
		return RoleUser, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return roleAdminName
	default:
		return roleUserName
	}
}

// Level reports the role's position in the ordering.
func (r Role) Level() int { return int(r) }

// Satisfies reports whether r meets or exceeds the required role.
func (r Role) Satisfies(required Role) bool { return r.Level() >= required.Level() }
