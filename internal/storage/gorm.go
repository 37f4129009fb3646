package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/annalza/mint-stock-flow/internal/catalog"
	"github.com/annalza/mint-stock-flow/internal/domain"
	"github.com/annalza/mint-stock-flow/internal/platform/database"
)

// Gorm persists the snapshot in a relational database. Queries run with the caller's
// context so the otelgorm plugin attaches them to the active trace.
type Gorm struct {
	db *gorm.DB
}

// NewGorm migrates the schema and returns a store over db.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(
		&itemRecord{},
		&recipeRecord{},
		&ingredientRecord{},
		&procurementRecord{},
	); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Load(ctx context.Context) (catalog.Snapshot, error) {
	db := g.db.WithContext(ctx)

	var items []itemRecord
	if err := db.Order("id").Find(&items).Error; err != nil {
		return catalog.Snapshot{}, fmt.Errorf("load items: %w", err)
	}
	var recipes []recipeRecord
	if err := db.Preload("Ingredients", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position")
	}).Order("id").Find(&recipes).Error; err != nil {
		return catalog.Snapshot{}, fmt.Errorf("load recipes: %w", err)
	}
	var procurements []procurementRecord
	if err := db.Order("id").Find(&procurements).Error; err != nil {
		return catalog.Snapshot{}, fmt.Errorf("load procurement requests: %w", err)
	}
	var last int64
	if err := db.Unscoped().Model(&procurementRecord{}).
		Select("COALESCE(MAX(id), 0)").Scan(&last).Error; err != nil {
		return catalog.Snapshot{}, fmt.Errorf("load procurement id high-water mark: %w", err)
	}

	s := catalog.Snapshot{LastProcurementID: last}
	for _, r := range items {
		s.Items = append(s.Items, r.toDomain())
	}
	for _, r := range recipes {
		s.Recipes = append(s.Recipes, r.toDomain())
	}
	for _, r := range procurements {
		s.Procurements = append(s.Procurements, r.toDomain())
	}
	return s, nil
}

func (g *Gorm) Seed(ctx context.Context, s catalog.Snapshot) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range s.Items {
			rec := toItemRecord(it)
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("seed item %d: %w", it.ID, err)
			}
		}
		for _, r := range s.Recipes {
			rec := toRecipeRecord(r)
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("seed recipe %d: %w", r.ID, err)
			}
		}
		for _, p := range s.Procurements {
			rec := toProcurementRecord(p)
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("seed procurement request %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

func (g *Gorm) SaveItems(ctx context.Context, items ...domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	recs := make([]itemRecord, 0, len(items))
	for _, it := range items {
		recs = append(recs, toItemRecord(it))
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "qty", "reorder_level", "expiry_days", "location", "updated_at"}),
	}).Create(&recs).Error
}

func (g *Gorm) SaveProcurement(ctx context.Context, p domain.ProcurementRequest) error {
	rec := toProcurementRecord(p)
	return g.db.WithContext(ctx).Save(&rec).Error
}

// DeleteProcurement soft-deletes the row; Load skips it but still counts its id.
func (g *Gorm) DeleteProcurement(ctx context.Context, id int64) error {
	return g.db.WithContext(ctx).Delete(&procurementRecord{}, id).Error
}

func (g *Gorm) Close() error {
	return database.Close(g.db)
}
