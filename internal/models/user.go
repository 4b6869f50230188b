package models

// RoleViewer can read inventory; RoleAdmin can also mutate it.
const RoleViewer = "viewer"
const RoleAdmin = "admin"

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

// IsAdmin reports whether the user may perform mutations.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
