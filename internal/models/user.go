package models

import "time"

// User identifies an actor known to the external auth service. The review
// board only reads this table; account lifecycle lives elsewhere.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:16;not null;default:USER" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// RoleUser is the default submitter role.
	RoleUser = "USER"
	// RoleAdmin grants review capabilities.
	RoleAdmin = "ADMIN"
)

// IsAdmin reports whether the user carries administrator capability.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
