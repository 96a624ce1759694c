package models

import "time"

// Account is a registered identity. PasswordHash is a bcrypt hash and must
// never leave the server.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
