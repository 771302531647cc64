package users

import (
	"errors"
	"time"
)

// DefaultTeamID is the team every new user joins.
const DefaultTeamID = "t1"

// User is a stored identity. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Age          int       `json:"age"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Teams        []string  `json:"teams"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Age      int    `json:"age" validate:"required,min=1,max=150"`
	Password string `json:"password" validate:"required,min=6"`
	// Role is accepted for compatibility and ignored: the first-admin rule decides.
	Role string `json:"role" validate:"omitempty,oneof=admin user moderator"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Age      *int    `json:"age" validate:"omitempty,min=1,max=150"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin user moderator"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}

func (r UpdateRequest) empty() bool {
	return r.Name == nil && r.Email == nil && r.Age == nil && r.Role == nil && r.Password == nil
}

type RoleRequest struct {
	Role string `json:"role"`
}

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)
