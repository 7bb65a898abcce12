package domain

// RequestingUser is the per-request authorization context derived from a
// verified credential. It is never persisted.
type RequestingUser struct {
	UID      string
	Role     Role
	Email    string
	SellerID string
}

// IsAdmin reports whether the caller holds the admin role.
func (u RequestingUser) IsAdmin() bool { return u.Role == RoleAdmin }

// CanActOn reports whether the caller may operate on the target account
// under the self-or-admin rule.
func (u RequestingUser) CanActOn(targetID string) bool {
	return u.IsAdmin() || u.UID == targetID
}
