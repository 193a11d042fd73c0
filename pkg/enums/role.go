package enums

import (
	"fmt"
	"strings"
)

// Role is the typed capability checked at the service boundary. Identity rows
// carry free-text role strings ("ROLE_ADMIN", "ROLE_USER"); those map onto
// this enum and nothing downstream ever sees the raw strings.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

var validRoles = []Role{
	RoleAdmin,
	RoleUser,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// RoleFromProviderStrings maps identity-provider role strings to the highest
// capability they grant.
func RoleFromProviderStrings(raw []string) Role {
	role := RoleUser
	for _, entry := range raw {
		if strings.EqualFold(strings.TrimSpace(entry), "ROLE_ADMIN") {
			role = RoleAdmin
		}
	}
	return role
}
