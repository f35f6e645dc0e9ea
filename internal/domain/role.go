package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles a user may hold.
type Role string

const (
	RoleStaff   Role = "STAFF"
	RoleManager Role = "MANAGER"
)

// Roles lists every valid role.
var Roles = []Role{RoleStaff, RoleManager}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStaff, RoleManager:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts the canonical upper-case form as well as the lower-case
// form used by the admin API ("staff", "manager").
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// RoleSet is an immutable set of roles accepted by an operation.
type RoleSet struct {
	members map[Role]struct{}
}

// NewRoleSet builds a set from the given roles. Invalid roles are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	members := make(map[Role]struct{}, len(roles))
	for _, role := range roles {
		if role.Valid() {
			members[role] = struct{}{}
		}
	}
	return RoleSet{members: members}
}

// Contains reports membership. The zero RoleSet contains nothing.
func (s RoleSet) Contains(role Role) bool {
	_, ok := s.members[role]
	return ok
}

// Slice returns the members in declaration order.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s.members))
	for _, role := range Roles {
		if s.Contains(role) {
			out = append(out, role)
		}
	}
	return out
}
