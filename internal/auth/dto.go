package auth

import (
	"github.com/farmfresh/farmfresh-backend/internal/users"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a customer or farmer account. Farmers also name
// their farm.
type RegisterRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8,max=72"`
	Name     string     `json:"name" validate:"required,max=50"`
	Phone    *string    `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
	Role     enums.Role `json:"role" validate:"required,oneof=customer farmer"`
	FarmName string     `json:"farmName" validate:"required_if=Role farmer,max=100"`
	Region   string     `json:"region" validate:"omitempty,max=100"`
}

// RefreshRequest pairs the (possibly expired) access token with its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthResponse contains the tokens and user produced by register, login and refresh.
type AuthResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         *users.UserDTO `json:"user"`
}
