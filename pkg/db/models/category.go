package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups catalog products.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:ux_categories_name"`
	Icon      *string   `gorm:"column:icon"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
