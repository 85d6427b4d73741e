package domain

import (
	"time"
)

// User is the authenticated owner of projects. Accounts are managed by the
// CRUD service; this side only reads them.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUser(id, username, email string) *User {
	return &User{
		ID:        id,
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
}
