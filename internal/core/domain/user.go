package domain

import (
	"errors"
	"time"
)

// PrivilegeUser is granted to every signed-in caller. Task-level rights come
// from the role cache, not from privileges.
const PrivilegeUser = "ROLE_USER"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthenticated    = errors.New("authentication required")
)

// User models an identity in the credential store.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Caller is the verified identity attached to a request after token
// authentication.
type Caller struct {
	UserID     string
	Username   string
	Email      string
	Privileges []string
}

// NewCaller builds the caller context for an authenticated user.
func NewCaller(u *User) *Caller {
	return &Caller{
		UserID:     u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Privileges: []string{PrivilegeUser},
	}
}
