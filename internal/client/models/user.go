package models

import (
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account record. Users are created by an admin action or by
// cold-start import from the mirror, never by a regular user at runtime.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	LastLogin    *time.Time
	CreatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	r := strings.ToLower(role)
	return r == RoleAdmin || r == RoleUser
}
