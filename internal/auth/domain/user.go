package domain

import "time"

type User struct {
	ID           string
	Name         string
	Role         Role
	PasswordHash string // argon2 encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PrincipalID is the identity the HTTP middleware keys requests by.
func (u User) PrincipalID() string { return u.ID }

// HasRole reports whether u may act with the access of required.
func (u User) HasRole(required Role) bool { return u.Role.Satisfies(required) }
