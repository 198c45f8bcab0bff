package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FarmerProfile is the public storefront of a farmer account.
type FarmerProfile struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_farmer_profiles_user"`
	FarmName    string    `gorm:"column:farm_name;not null"`
	Region      string    `gorm:"column:region;not null;default:''"`
	AvatarURL   *string   `gorm:"column:avatar_url"`
	Intro       *string   `gorm:"column:intro"`
	Story       *string   `gorm:"column:story"`
	StoryImages []string  `gorm:"column:story_images;type:jsonb;serializer:json"`
	Verified    bool      `gorm:"column:verified;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *FarmerProfile) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
