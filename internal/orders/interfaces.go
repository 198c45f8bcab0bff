package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/pagination"
)

// ErrVersionConflict is returned by Save when another writer bumped the version first.
var ErrVersionConflict = errors.New("order version conflict")

// ListScope restricts the order list to one customer or one farm. The zero
// value lists everything.
type ListScope struct {
	CustomerID *uuid.UUID
	FarmerID   *uuid.UUID
}

// Repository defines persistence operations for the order aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LoadForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Save(ctx context.Context, order *models.Order, expectedVersion int, changes *Changes) error
	List(ctx context.Context, scope ListScope, filter ListFilter, params pagination.Params) ([]models.Order, int64, error)
}

// CartStore reads and clears the customer's cart inside the checkout transaction.
type CartStore interface {
	ListItemsTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]models.CartItem, error)
	DeleteItemsTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) error
}

// StockReserver takes stock for an order line. It must fail with
// INSUFFICIENT_STOCK when the row does not hold enough units.
type StockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// AddressLookup resolves a saved address owned by the user.
type AddressLookup interface {
	FindForUser(ctx context.Context, tx *gorm.DB, userID, addressID uuid.UUID) (*models.Address, error)
}
