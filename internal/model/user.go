// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// The ID is assigned by the store on creation (SQLite AUTOINCREMENT), so it
// is monotonic and unique. Username is immutable after registration and
// enforced unique (case-sensitive) by the database.
//
// PasswordHash holds the bcrypt hash of the password — never the plaintext.
// The `json:"-"` tag guarantees it can never leak through an API response,
// no matter which handler serializes the struct.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
