package product

import (
	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
	"github.com/farmfresh/farmfresh-backend/pkg/pagination"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	CategoryID *uuid.UUID
	FarmerID   *uuid.UUID
	Keyword    string
	MinPrice   *money.Cents
	MaxPrice   *money.Cents
	Organic    *bool
	Seasonal   *bool
	Sort       enums.ProductSort
}

// listQuery is what the repository runs. Statuses empty means any status.
type listQuery struct {
	Filters    ListFilters
	Statuses   []enums.ProductStatus
	Pagination pagination.Params
}
