package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Phone           *string    `json:"phone,omitempty"`
	Role            enums.Role `json:"role"`
	FarmerProfileID *uuid.UUID `json:"farmerProfileId,omitempty"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        *string
	Role         enums.Role
	Farm         *CreateFarmDTO
}

// CreateFarmDTO seeds the farmer profile of a farmer account.
type CreateFarmDTO struct {
	FarmName string
	Region   string
}

func (d CreateUserDTO) ToModel() *models.User {
	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(d.Email)),
		PasswordHash: d.PasswordHash,
		Name:         strings.TrimSpace(d.Name),
		Phone:        d.Phone,
		Role:         d.Role,
		IsActive:     true,
	}
	if d.Farm != nil {
		user.FarmerProfile = &models.FarmerProfile{
			FarmName: strings.TrimSpace(d.Farm.FarmName),
			Region:   strings.TrimSpace(d.Farm.Region),
		}
	}
	return user
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Phone:           u.Phone,
		Role:            u.Role,
		FarmerProfileID: u.FarmerProfileID(),
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}
