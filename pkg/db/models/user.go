package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email         string         `gorm:"column:email;not null;uniqueIndex:ux_users_email"`
	PasswordHash  string         `gorm:"column:password_hash;not null"`
	Name          string         `gorm:"column:name;not null"`
	Phone         *string        `gorm:"column:phone"`
	Role          enums.Role     `gorm:"column:role;type:text;not null;default:'customer'"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt   *time.Time     `gorm:"column:last_login_at"`
	FarmerProfile *FarmerProfile `gorm:"foreignKey:UserID"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// FarmerProfileID returns the linked profile id, if any.
func (u *User) FarmerProfileID() *uuid.UUID {
	if u == nil || u.FarmerProfile == nil {
		return nil
	}
	id := u.FarmerProfile.ID
	return &id
}
