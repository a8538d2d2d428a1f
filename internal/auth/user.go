package auth

import "time"

// Roles. Plumbers bid on and execute jobs, clients post them, admins
// arbitrate claims and force release checks.
const (
	RoleClient  = "client"
	RolePlumber = "plumber"
	RoleAdmin   = "admin"
)

type User struct {
	ID           uint64    `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null;default:'client'"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
}

// ValidRole reports whether a registration role is acceptable. Admins
// are provisioned out-of-band, never via register.
func ValidRole(role string) bool {
	return role == RoleClient || role == RolePlumber
}
