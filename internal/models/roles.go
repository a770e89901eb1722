package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned for labels outside the role set.
var ErrUnknownRole = errors.New("unknown role")

// Role is the closed set of community roles. The zero value is not a valid role.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleResident Role = "resident"
	RoleSecurity Role = "security"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleResident, RoleSecurity}

// ParseRole maps a stored or user-supplied label onto a Role.
// Managers ("manager", "yonetici") share the admin role.
func ParseRole(label string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "admin", "manager", "yonetici":
		return RoleAdmin, nil
	case "resident", "sakin":
		return RoleResident, nil
	case "security", "guvenlik":
		return RoleSecurity, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownRole, label)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleResident, RoleSecurity:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// UnmarshalText normalises aliases so JSON and YAML payloads accept them.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
