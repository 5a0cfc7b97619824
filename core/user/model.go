package user

import "time"

type CreateUserRequest struct {
	Username          string `json:"username,omitempty"`
	Email             string `json:"email,omitempty"`
	IsAdmin           bool   `json:"isAdmin,omitempty"`
	PlainTextPassword string `json:"-"`
}

type User struct {
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	IsAdmin        bool      `json:"isAdmin"`
	IsActive       bool      `json:"isActive"`
	Created        time.Time `json:"created"`
}

// CanAccess reports whether the user may act on a resource owned by owner.
func (u User) CanAccess(owner string) bool {
	return u.IsAdmin || u.Username == owner
}
