package entities

import (
	"strings"
	"time"
)

// User is a registered account. PasswordHash never leaves the auth package.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:100" json:"name"`
	Email        string    `gorm:"size:254" json:"email"`
	EmailKey     string    `gorm:"uniqueIndex;size:254;not null" json:"-"` // lower-cased Email, used for lookups
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// NormalizeEmail returns the case-insensitive lookup key for an email.
// Whitespace is preserved.
func NormalizeEmail(email string) string {
	return strings.ToLower(email)
}
