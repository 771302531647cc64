package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape.
// The gateway copies UserID, Name, Email, Role and Teams into identity headers verbatim,
// so every field here is part of the trust boundary.
type Claims struct {
	jwt.RegisteredClaims

	UserID string   `json:"user_id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   string   `json:"role"`
	Teams  []string `json:"teams"`
}

// Subject is the identity a credential is issued for.
type Subject struct {
	UserID string
	Name   string
	Email  string
	Role   string
	Teams  []string
}

func (c Claims) Subject() Subject {
	return Subject{
		UserID: c.UserID,
		Name:   c.Name,
		Email:  c.Email,
		Role:   c.Role,
		Teams:  c.Teams,
	}
}
