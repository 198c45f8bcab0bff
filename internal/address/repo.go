package address

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
)

// Repository persists the customer address book.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListForUser returns the default address first, then newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindForUser loads an address owned by userID. It returns
// gorm.ErrRecordNotFound for foreign or missing rows.
func (r *Repository) FindForUser(ctx context.Context, tx *gorm.DB, userID, addressID uuid.UUID) (*models.Address, error) {
	var addr models.Address
	err := r.WithTx(tx).db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *Repository) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *Repository) Create(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

func (r *Repository) Save(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Save(addr).Error
}

func (r *Repository) Delete(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.Address{})
	return res.RowsAffected > 0, res.Error
}

// ClearDefault unsets the default flag on every address of the user except keep.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID, keep uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, keep, true).
		Update("is_default", false).Error
}

// PromoteNewest marks the most recently created address as default.
func (r *Repository) PromoteNewest(ctx context.Context, userID uuid.UUID) error {
	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ?", addr.ID).
		Update("is_default", true).Error
}
