package dbtest

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
)

// Customer inserts a customer account.
func Customer(t testing.TB, conn *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Email:        gofakeit.Email(),
		PasswordHash: "not-a-real-hash",
		Name:         gofakeit.Name(),
		Role:         enums.RoleCustomer,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

// Farmer inserts a farmer account with its profile.
func Farmer(t testing.TB, conn *gorm.DB) (*models.User, *models.FarmerProfile) {
	t.Helper()
	user := &models.User{
		Email:        gofakeit.Email(),
		PasswordHash: "not-a-real-hash",
		Name:         gofakeit.Name(),
		Role:         enums.RoleFarmer,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)
	profile := &models.FarmerProfile{
		UserID:   user.ID,
		FarmName: gofakeit.Company() + "农场",
		Region:   gofakeit.City(),
	}
	require.NoError(t, conn.Create(profile).Error)
	user.FarmerProfile = profile
	return user, profile
}

// AnyCategory returns one of the seeded categories.
func AnyCategory(t testing.TB, conn *gorm.DB) models.Category {
	t.Helper()
	var category models.Category
	require.NoError(t, conn.Order("sort_order ASC").First(&category).Error)
	return category
}

// ProductOption tweaks a fixture product before insert.
type ProductOption func(*models.Product)

func WithPrice(c money.Cents) ProductOption {
	return func(p *models.Product) { p.PriceCents = c }
}

func WithStock(n int) ProductOption {
	return func(p *models.Product) { p.Stock = n }
}

func WithStatus(s enums.ProductStatus) ProductOption {
	return func(p *models.Product) { p.Status = s }
}

func WithName(name string) ProductOption {
	return func(p *models.Product) { p.Name = name }
}

func WithOrganic() ProductOption {
	return func(p *models.Product) { p.Organic = true }
}

func WithSeasonalTag(tag string) ProductOption {
	return func(p *models.Product) { p.SeasonalTag = &tag }
}

// Product inserts an active product owned by farmerID. Defaults are random but
// always sellable.
func Product(t testing.TB, conn *gorm.DB, farmerID uuid.UUID, opts ...ProductOption) *models.Product {
	t.Helper()
	category := AnyCategory(t, conn)
	product := &models.Product{
		FarmerID:    farmerID,
		CategoryID:  category.ID,
		Name:        gofakeit.Fruit(),
		Description: gofakeit.Phrase(),
		Images:      []string{gofakeit.URL() + "/cover.jpg"},
		PriceCents:  money.Cents(gofakeit.IntRange(100, 9999)),
		Unit:        "斤",
		Origin:      gofakeit.City(),
		Stock:       gofakeit.IntRange(50, 200),
		Status:      enums.ProductStatusActive,
	}
	for _, opt := range opts {
		opt(product)
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

// CartItem inserts a cart line.
func CartItem(t testing.TB, conn *gorm.DB, userID, productID uuid.UUID, qty int, selected bool) *models.CartItem {
	t.Helper()
	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: qty, Selected: selected}
	require.NoError(t, conn.Create(item).Error)
	return item
}
