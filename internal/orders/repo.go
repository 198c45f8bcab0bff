package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmfresh/farmfresh-backend/pkg/db"
	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order with its items and initial history.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit("Logistics", "AfterSale").
		Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := withChildren(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LoadForUpdate locks the order row, then loads the full aggregate with the
// same transaction.
func (r *repository) LoadForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var locked models.Order
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Select("id").
		Where("id = ?", id).
		First(&locked).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Save writes the order row guarded by the version it was loaded with, then
// the child rows recorded in changes.
func (r *repository) Save(ctx context.Context, order *models.Order, expectedVersion int, changes *Changes) error {
	conn := r.db.WithContext(ctx)
	now := time.Now().UTC()

	res := conn.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Updates(map[string]any{
			"status":        order.Status,
			"cancel_reason": order.CancelReason,
			"cancelled_at":  order.CancelledAt,
			"version":       expectedVersion + 1,
			"updated_at":    now,
		})
	if res.Error != nil {
		return fmt.Errorf("update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	order.Version = expectedVersion + 1
	order.UpdatedAt = now

	if changes == nil {
		return nil
	}
	if len(changes.History) > 0 {
		if err := conn.Create(&changes.History).Error; err != nil {
			return fmt.Errorf("append status history: %w", err)
		}
	}
	if changes.LogisticsChanged && order.Logistics != nil {
		if err := conn.Omit(clause.Associations).Save(order.Logistics).Error; err != nil {
			return fmt.Errorf("save logistics: %w", err)
		}
	}
	if len(changes.Checkpoints) > 0 {
		if err := conn.Create(&changes.Checkpoints).Error; err != nil {
			return fmt.Errorf("append checkpoints: %w", err)
		}
	}
	if changes.AfterSaleChanged && order.AfterSale != nil {
		if err := conn.Save(order.AfterSale).Error; err != nil {
			return fmt.Errorf("save after-sale: %w", err)
		}
	}
	return nil
}

func (r *repository) List(ctx context.Context, scope ListScope, filter ListFilter, params pagination.Params) ([]models.Order, int64, error) {
	params = params.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if scope.CustomerID != nil {
		query = query.Where("customer_id = ?", *scope.CustomerID)
	}
	if scope.FarmerID != nil {
		query = query.Where("farmer_id = ?", *scope.FarmerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Order
	err := query.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("AfterSale").
		Order("created_at DESC").
		Order("id DESC").
		Limit(params.PageSize).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func withChildren(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("History", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq ASC") }).
		Preload("Logistics").
		Preload("Logistics.Checkpoints", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq ASC") }).
		Preload("AfterSale")
}
