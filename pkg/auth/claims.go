package auth

import (
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID          uuid.UUID
	Role            enums.Role
	FarmerProfileID *uuid.UUID
	JTI             string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID          uuid.UUID  `json:"uid"`
	Role            enums.Role `json:"role"`
	FarmerProfileID *uuid.UUID `json:"fid,omitempty"`
	jwt.RegisteredClaims
}

// Principal returns the verified identity carried by the token.
func (c *AccessTokenClaims) Principal() Principal {
	return Principal{
		UserID:          c.UserID,
		Role:            c.Role,
		FarmerProfileID: c.FarmerProfileID,
	}
}
