package models

import "time"

// Person is a contact record owned by exactly one account.
type Person struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
