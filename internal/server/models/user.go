package models

import (
	"fmt"
	"time"
)

// Role is a marketplace attribute of a user. It carries no permissions.
type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

// ParseRole accepts "seller" or "buyer".
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleSeller, RoleBuyer:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User is a registered identity. PasswordHash is a bcrypt digest.
type User struct {
	ID           string    `db:"id"`
	UserName     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	RegisteredOn time.Time `db:"registered_on"`
}
