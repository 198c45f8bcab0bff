package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
)

// Product represents a farmer-owned catalog entry.
type Product struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	FarmerID           uuid.UUID           `gorm:"column:farmer_id;type:uuid;not null;index"`
	CategoryID         uuid.UUID           `gorm:"column:category_id;type:uuid;not null;index"`
	Name               string              `gorm:"column:name;not null"`
	Description        string              `gorm:"column:description;not null;default:''"`
	Images             []string            `gorm:"column:images;type:jsonb;serializer:json"`
	PriceCents         money.Cents         `gorm:"column:price_cents;not null"`
	OriginalPriceCents *money.Cents        `gorm:"column:original_price_cents"`
	Unit               string              `gorm:"column:unit;not null"`
	Origin             string              `gorm:"column:origin;not null;default:''"`
	SeasonalTag        *string             `gorm:"column:seasonal_tag"`
	Organic            bool                `gorm:"column:organic;not null;default:false"`
	Stock              int                 `gorm:"column:stock;not null;default:0"`
	SalesCount         int                 `gorm:"column:sales_count;not null;default:0"`
	Status             enums.ProductStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Thumbnail returns the first image, if any.
func (p *Product) Thumbnail() *string {
	if p == nil || len(p.Images) == 0 {
		return nil
	}
	first := p.Images[0]
	return &first
}
