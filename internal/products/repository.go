package product

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
)

// Repository encapsulates catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository bound to the provided DB.
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

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDTx is FindByID bound to a caller-owned transaction.
func (r *Repository) FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	return r.WithTx(tx).FindByID(ctx, id)
}

// Update writes every column of the product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete removes the product and any cart lines pointing at it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return conn.Where("id = ?", id).Delete(&models.Product{}).Error
}

func (r *Repository) List(ctx context.Context, query listQuery) ([]models.Product, int64, error) {
	params := query.Pagination.Normalize()
	qb := r.db.WithContext(ctx).Model(&models.Product{})

	if len(query.Statuses) > 0 {
		qb = qb.Where("status IN ?", query.Statuses)
	}
	filter := query.Filters
	if filter.CategoryID != nil {
		qb = qb.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.FarmerID != nil {
		qb = qb.Where("farmer_id = ?", *filter.FarmerID)
	}
	if filter.MinPrice != nil {
		qb = qb.Where("price_cents >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		qb = qb.Where("price_cents <= ?", *filter.MaxPrice)
	}
	if filter.Organic != nil {
		qb = qb.Where("organic = ?", *filter.Organic)
	}
	if filter.Seasonal != nil {
		if *filter.Seasonal {
			qb = qb.Where("seasonal_tag IS NOT NULL AND seasonal_tag <> ''")
		} else {
			qb = qb.Where("(seasonal_tag IS NULL OR seasonal_tag = '')")
		}
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		pattern := "%" + strings.ToLower(keyword) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}
	qb = qb.Session(&gorm.Session{})

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Sort {
	case enums.ProductSortPriceAsc:
		qb = qb.Order("price_cents ASC")
	case enums.ProductSortPriceDesc:
		qb = qb.Order("price_cents DESC")
	case enums.ProductSortSales:
		qb = qb.Order("sales_count DESC")
	}
	var rows []models.Product
	err := qb.
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

// AdjustStock applies delta to the stock count. The result may not go below zero.
func (r *Repository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		product, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "stock of %s cannot drop below zero", product.Name).
			WithDetails(map[string]any{"productId": id, "available": product.Stock, "delta": delta})
	}
	return r.FindByID(ctx, id)
}

// Reserve takes qty units of an active product for an order and bumps its sales
// count. It is a single conditional UPDATE so concurrent checkouts cannot oversell.
func (r *Repository) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	res := r.WithTx(tx).db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND status = ? AND stock >= ?", productID, enums.ProductStatusActive, qty).
		Updates(map[string]any{
			"stock":       gorm.Expr("stock - ?", qty),
			"sales_count": gorm.Expr("sales_count + ?", qty),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"productId": productID, "requested": qty})
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("sort_order ASC").Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CountOrderLines counts order lines that captured the product.
func (r *Repository) CountOrderLines(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("product_id = ?", id).
		Count(&count).Error
	return count, err
}

// CountActiveByFarmer counts the farmer's products currently on sale.
func (r *Repository) CountActiveByFarmer(ctx context.Context, farmerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("farmer_id = ? AND status = ?", farmerID, enums.ProductStatusActive).
		Count(&count).Error
	return count, err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
