package address

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
)

type AddressDTO struct {
	ID          uuid.UUID `json:"id"`
	ContactName string    `json:"contactName"`
	Phone       string    `json:"phone"`
	Province    string    `json:"province"`
	City        string    `json:"city"`
	District    string    `json:"district"`
	Detail      string    `json:"detail"`
	FullAddress string    `json:"fullAddress"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Input is the body for creating or replacing an address.
type Input struct {
	ContactName string `json:"contactName" validate:"required,max=50"`
	Phone       string `json:"phone" validate:"required,min=6,max=20"`
	Province    string `json:"province" validate:"required,max=50"`
	City        string `json:"city" validate:"required,max=50"`
	District    string `json:"district" validate:"omitempty,max=50"`
	Detail      string `json:"detail" validate:"required,max=200"`
	IsDefault   bool   `json:"isDefault"`
}

func toDTO(a models.Address) AddressDTO {
	return AddressDTO{
		ID:          a.ID,
		ContactName: a.ContactName,
		Phone:       a.Phone,
		Province:    a.Province,
		City:        a.City,
		District:    a.District,
		Detail:      a.Detail,
		FullAddress: a.FullAddress(),
		IsDefault:   a.IsDefault,
		CreatedAt:   a.CreatedAt,
	}
}
