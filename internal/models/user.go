package models

import "time"

// User is keyed by username. Password holds the bcrypt hash once persisted.
type User struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
