package users

// User is an account allowed to log into the terminal.
type User struct {
	ID   int64
	Name string
	// PasswordHash is a bcrypt hash, never the clear password.
	PasswordHash string
	Role         string
}

// Roles known to the UI.
const (
	RoleAdmin  = "admin"
	RoleSeller = "vendedor"
)
