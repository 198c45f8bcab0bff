package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
)

// ProductDTO is the catalog representation of a product.
type ProductDTO struct {
	ID            uuid.UUID           `json:"id"`
	FarmerID      uuid.UUID           `json:"farmerId"`
	CategoryID    uuid.UUID           `json:"categoryId"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Images        []string            `json:"images"`
	Price         money.Cents         `json:"price"`
	OriginalPrice *money.Cents        `json:"originalPrice,omitempty"`
	Unit          string              `json:"unit"`
	Origin        string              `json:"origin"`
	SeasonalTag   *string             `json:"seasonalTag,omitempty"`
	Organic       bool                `json:"organic"`
	Stock         int                 `json:"stock"`
	SalesCount    int                 `json:"salesCount"`
	Status        enums.ProductStatus `json:"status"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Icon      *string   `json:"icon,omitempty"`
	SortOrder int       `json:"sortOrder"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	CategoryID    uuid.UUID
	Name          string
	Description   string
	Images        []string
	Price         money.Cents
	OriginalPrice *money.Cents
	Unit          string
	Origin        string
	SeasonalTag   *string
	Organic       bool
	Stock         int
	Status        *enums.ProductStatus
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	CategoryID    *uuid.UUID
	Name          *string
	Description   *string
	Images        *[]string
	Price         *money.Cents
	OriginalPrice *money.Cents
	Unit          *string
	Origin        *string
	SeasonalTag   *string
	Organic       *bool
	Stock         *int
}

// ToProductDTO maps a product row to its API shape.
func ToProductDTO(p models.Product) ProductDTO {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:            p.ID,
		FarmerID:      p.FarmerID,
		CategoryID:    p.CategoryID,
		Name:          p.Name,
		Description:   p.Description,
		Images:        images,
		Price:         p.PriceCents,
		OriginalPrice: p.OriginalPriceCents,
		Unit:          p.Unit,
		Origin:        p.Origin,
		SeasonalTag:   p.SeasonalTag,
		Organic:       p.Organic,
		Stock:         p.Stock,
		SalesCount:    p.SalesCount,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toCategoryDTO(c models.Category, _ int) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, Icon: c.Icon, SortOrder: c.SortOrder}
}
