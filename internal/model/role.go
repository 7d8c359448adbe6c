// Package model defines the entity structs and closed enumerations shared
// by the repository and service layers. Role values are validated at the
// API boundary with ParseRole so the rest of the code can treat them as
// already-valid; the database schema enforces the same set via ENUM columns.
package model

import (
	"fmt"
	"strings"
)

// Role enumerates the application roles a user can hold. DEVELOPER and
// DESIGNER are the roles tasks are rotated across; USER is the default for
// new registrations; ADMIN is reserved for administrative accounts.
type Role string

const (
	RoleDeveloper Role = "DEVELOPER"
	RoleDesigner  Role = "DESIGNER"
	RoleUser      Role = "USER"
	RoleAdmin     Role = "ADMIN"
)

// Roles lists every valid role. The order is not significant.
var Roles = []Role{RoleDeveloper, RoleDesigner, RoleUser, RoleAdmin}

// ParseRole normalizes and validates a role string supplied by a client.
// Matching is case-insensitive and surrounding whitespace is ignored.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleDeveloper, RoleDesigner, RoleUser, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }
