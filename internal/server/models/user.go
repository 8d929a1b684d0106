// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is one registered principal. PasswordHash holds the bcrypt encoding
// (salt included); the plaintext password is never stored.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate lists the columns to change. Nil fields are left untouched.
type UserUpdate struct {
	UserName     *string
	PasswordHash *string
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.UserName == nil && u.PasswordHash == nil
}
