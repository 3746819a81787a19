package models

import "time"

// LoginEvent is one successful login. ID is a ULID, so ids sort by time.
type LoginEvent struct {
	ID         string    `json:"id"`
	AccountID  int64     `json:"-"`
	LoggedInAt time.Time `json:"logged_in_at"`
}
