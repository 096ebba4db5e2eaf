package models

import "linkly-be/internal/entities"

// AuthUser is the public view of an account returned by the auth endpoints
type AuthUser struct {
	ID    string        `json:"id"`
	Email string        `json:"email"`
	Name  string        `json:"name"`
	Plan  entities.Plan `json:"plan"`
}

// NewAuthUser builds the public view of a user
func NewAuthUser(user *entities.User) AuthUser {
	return AuthUser{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Plan:  user.Plan,
	}
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Success   bool        `json:"success"`
	User      AuthUser    `json:"user"`
	SessionID string      `json:"sessionId"`
	UserStats interface{} `json:"userStats,omitempty"`
}
