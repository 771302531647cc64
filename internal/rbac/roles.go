package rbac

// Role names. Keep these stable; they are carried in credentials and identity headers.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	// RoleModerator is accepted on input but grants nothing beyond RoleUser.
	RoleModerator = "moderator"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// IsKnownRole reports whether role may be supplied on registration or update.
func IsKnownRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	default:
		return false
	}
}

// IsAssignableRole reports whether an admin may set role through a role change.
func IsAssignableRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
