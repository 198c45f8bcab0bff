package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is an entry in a customer's address book.
type Address struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	ContactName string    `gorm:"column:contact_name;not null"`
	Phone       string    `gorm:"column:phone;not null"`
	Province    string    `gorm:"column:province;not null"`
	City        string    `gorm:"column:city;not null"`
	District    string    `gorm:"column:district;not null;default:''"`
	Detail      string    `gorm:"column:detail;not null"`
	IsDefault   bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// FullAddress joins the address parts into the single line stored on orders.
func (a *Address) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, part := range []string{a.Province, a.City, a.District, a.Detail} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}
