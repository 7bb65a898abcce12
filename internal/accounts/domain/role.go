package domain

import "fmt"

// Role is the closed set of account roles. Anything outside this set is
// rejected at the parse boundary so handlers and services never see an
// unrecognised role string.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleUser   Role = "user"
)

// DefaultRole is assigned when an account is created without an explicit role.
const DefaultRole = RoleUser

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleSeller, RoleUser:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }
