package cart

import (
	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
)

// ItemDTO is a cart line with a snapshot of the product as it is now.
type ItemDTO struct {
	ID        uuid.UUID   `json:"id"`
	ProductID uuid.UUID   `json:"productId"`
	FarmerID  uuid.UUID   `json:"farmerId"`
	Name      string      `json:"name"`
	Image     *string     `json:"image,omitempty"`
	Unit      string      `json:"unit"`
	Price     money.Cents `json:"price"`
	Stock     int         `json:"stock"`
	Available bool        `json:"available"`
	Quantity  int         `json:"quantity"`
	Selected  bool        `json:"selected"`
	Subtotal  money.Cents `json:"subtotal"`
}

// CartDTO is the full cart view.
type CartDTO struct {
	Items   []ItemDTO `json:"items"`
	Summary Summary   `json:"summary"`
}

// AddItemInput adds qty units of a product.
type AddItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1,max=999"`
}

// UpdateItemInput changes quantity and/or the selected flag. Nil fields are
// left alone.
type UpdateItemInput struct {
	Quantity *int  `json:"quantity,omitempty" validate:"omitempty,min=1,max=999"`
	Selected *bool `json:"selected,omitempty"`
}

func toItemDTO(item models.CartItem) ItemDTO {
	dto := ItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Selected:  item.Selected,
	}
	if p := item.Product; p != nil {
		dto.FarmerID = p.FarmerID
		dto.Name = p.Name
		dto.Image = p.Thumbnail()
		dto.Unit = p.Unit
		dto.Price = p.PriceCents
		dto.Stock = p.Stock
		dto.Available = p.Status == enums.ProductStatusActive
		dto.Subtotal = p.PriceCents.Times(item.Quantity)
	}
	return dto
}
