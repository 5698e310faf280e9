// Package auth provides authentication and user account domain logic.
package auth

import (
	"context"
	"time"

	"kota/internal/core/apperror"
	"kota/internal/core/entity"
	"kota/internal/core/id"
)

// Role is the access level assigned to a user account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 8
)

// User is an account that can authenticate and act on the inventory.
type User struct {
	entity.Base

	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// NewUser creates an active user with a generated ID. The password
// hash is set separately by the service.
func NewUser(username string, role Role) *User {
	return &User{
		Base:      entity.NewBase(),
		Username:  username,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate implements entity.Validatable.
func (u *User) Validate(ctx context.Context) error {
	if len(u.Username) < minUsernameLen || len(u.Username) > maxUsernameLen {
		return apperror.NewValidation("username length is out of range").
			WithDetail("field", "username")
	}
	if !u.Role.IsValid() {
		return apperror.NewValidation("invalid role").
			WithDetail("field", "role").
			WithDetail("value", string(u.Role))
	}
	return nil
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, user *User) error
}
