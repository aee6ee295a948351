package authz

const (
	RoleStudent = "student"
	RoleViewer  = "viewer"
)

func Valid(role string) bool {
	return role == RoleStudent || role == RoleViewer
}

// IsReadOnly reports roles that may only read collections and exports.
func IsReadOnly(role string) bool {
	return role == RoleViewer
}
