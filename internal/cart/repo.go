package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
)

// Repository persists cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListItems returns the user's cart lines, oldest first, with products preloaded.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// ListItemsTx is ListItems bound to a caller-owned transaction.
func (r *Repository) ListItemsTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]models.CartItem, error) {
	return r.WithTx(tx).ListItems(ctx, userID)
}

func (r *Repository) FindItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindByProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product").Create(item).Error
}

// Update writes quantity and selected for the line.
func (r *Repository) Update(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity": item.Quantity,
			"selected": item.Selected,
		}).Error
}

// Delete removes one line and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}

// DeleteItemsTx removes the given lines inside the caller's transaction.
func (r *Repository) DeleteItemsTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.WithTx(tx).db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, itemIDs).
		Delete(&models.CartItem{}).Error
}

func (r *Repository) SetAllSelected(ctx context.Context, userID uuid.UUID, selected bool) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ?", userID).
		Update("selected", selected).Error
}
