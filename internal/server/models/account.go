package models

import "time"

// Account is a registered user. PasswordHash and SessionID never leave the
// server: they carry `json:"-"` so an Account can be rendered as-is.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	SessionID    string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasSession reports whether a login is currently active for the account.
func (a *Account) HasSession() bool {
	return a.SessionID != ""
}
