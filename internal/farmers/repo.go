package farmers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/farmfresh/farmfresh-backend/pkg/pagination"
)

// Repository provides access to farmer profiles.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.FarmerProfile, error) {
	var profile models.FarmerProfile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) Update(ctx context.Context, profile *models.FarmerProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// List returns verified farms first, then newest. Region matches as a substring.
func (r *Repository) List(ctx context.Context, region string, params pagination.Params) ([]models.FarmerProfile, int64, error) {
	params = params.Normalize()
	qb := r.db.WithContext(ctx).Model(&models.FarmerProfile{})
	if region = strings.TrimSpace(region); region != "" {
		qb = qb.Where("region LIKE ?", "%"+region+"%")
	}
	qb = qb.Session(&gorm.Session{})

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.FarmerProfile
	err := qb.
		Order("verified DESC").
		Order("created_at DESC").
		Limit(params.PageSize).
		Offset(params.Offset()).
		Find(&rows).Error
	return rows, total, err
}

// ActiveProductCounts counts products on sale per farm.
func (r *Repository) ActiveProductCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		FarmerID uuid.UUID
		Count    int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("farmer_id, COUNT(*) AS count").
		Where("farmer_id IN ? AND status = ?", ids, enums.ProductStatusActive).
		Group("farmer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.FarmerID] = row.Count
	}
	return out, nil
}
