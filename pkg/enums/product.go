package enums

import "slices"

// ProductStatus controls catalog visibility.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

var validProductStatuses = []ProductStatus{
	ProductStatusDraft,
	ProductStatusActive,
	ProductStatusInactive,
}

func (s ProductStatus) String() string {
	return string(s)
}

func (s ProductStatus) IsValid() bool {
	return slices.Contains(validProductStatuses, s)
}

func (s *ProductStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseProductStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseProductStatus(value string) (ProductStatus, error) {
	return parseEnum(validProductStatuses, "product status", value)
}

// ProductSort is the ordering applied to catalog listings.
type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortPriceAsc  ProductSort = "price_asc"
	ProductSortPriceDesc ProductSort = "price_desc"
	ProductSortSales     ProductSort = "sales"
)

var validProductSorts = []ProductSort{
	ProductSortNewest,
	ProductSortPriceAsc,
	ProductSortPriceDesc,
	ProductSortSales,
}

// ParseProductSort defaults to newest when value is empty.
func ParseProductSort(value string) (ProductSort, error) {
	if value == "" {
		return ProductSortNewest, nil
	}
	return parseEnum(validProductSorts, "sort", value)
}
