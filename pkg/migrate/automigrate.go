package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/farmfresh/farmfresh-backend/pkg/db"
	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
)

// DefaultCategories mirrors the seed migration for databases built by AutoMigrate.
var DefaultCategories = []models.Category{
	{Name: "新鲜水果", Icon: strPtr("fruit"), SortOrder: 1},
	{Name: "时令蔬菜", Icon: strPtr("vegetable"), SortOrder: 2},
	{Name: "粮油米面", Icon: strPtr("grain"), SortOrder: 3},
	{Name: "禽蛋肉类", Icon: strPtr("meat"), SortOrder: 4},
	{Name: "水产海鲜", Icon: strPtr("seafood"), SortOrder: 5},
	{Name: "山货干货", Icon: strPtr("dried"), SortOrder: 6},
}

// AutoMigrate builds the schema from the gorm models and seeds categories.
func AutoMigrate(ctx context.Context, client *db.Client) error {
	conn := client.DB().WithContext(ctx)
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	seed := make([]models.Category, len(DefaultCategories))
	copy(seed, DefaultCategories)
	if err := conn.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&seed).Error; err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}

func strPtr(s string) *string { return &s }
