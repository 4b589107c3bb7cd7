package domain

import "time"

// Role is the closed set of account roles. Fixed at registration; there
// is no promotion flow.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether the value is a known role.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the domain model for accounts that submit or administer
// travel requests.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
