package storage

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/annalza/mint-stock-flow/internal/domain"
)

type itemRecord struct {
	ID           int64  `gorm:"primaryKey;autoIncrement:false"`
	Code         string `gorm:"size:32;not null;uniqueIndex"`
	Name         string `gorm:"size:128;not null"`
	Qty          int    `gorm:"not null;default:0"`
	ReorderLevel int    `gorm:"not null;default:0"`
	ExpiryDays   *int
	Location     string `gorm:"size:128"`
	UpdatedAt    time.Time
}

func (itemRecord) TableName() string { return "items" }

type recipeRecord struct {
	ID          int64              `gorm:"primaryKey;autoIncrement:false"`
	Name        string             `gorm:"size:128;not null"`
	Price       decimal.Decimal    `gorm:"type:decimal(12,2);not null"`
	Ingredients []ingredientRecord `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (recipeRecord) TableName() string { return "recipes" }

type ingredientRecord struct {
	ID          uint  `gorm:"primaryKey"`
	RecipeID    int64 `gorm:"not null;index"`
	ItemID      int64 `gorm:"not null"`
	QtyRequired int   `gorm:"not null"`
	Position    int   `gorm:"not null"`
}

func (ingredientRecord) TableName() string { return "recipe_items" }

type procurementRecord struct {
	ID           int64     `gorm:"primaryKey;autoIncrement:false"`
	ItemID       int64     `gorm:"not null;index"`
	QtyRequested int       `gorm:"not null"`
	Status       string    `gorm:"type:varchar(16);not null;index"`
	CreatedAt    time.Time `gorm:"not null"`
	RequestedBy  string    `gorm:"size:128"`
	ApprovedBy   *string   `gorm:"size:128"`
	ApprovedAt   *time.Time

	// Removed rows stay behind so their ids are never issued again.
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (procurementRecord) TableName() string { return "procurement_requests" }

func toItemRecord(it domain.Item) itemRecord {
	it = it.Clone()
	return itemRecord{
		ID:           it.ID,
		Code:         it.Code,
		Name:         it.Name,
		Qty:          it.Qty,
		ReorderLevel: it.ReorderLevel,
		ExpiryDays:   it.ExpiryDays,
		Location:     it.Location,
	}
}

func (r itemRecord) toDomain() domain.Item {
	return domain.Item{
		ID:           r.ID,
		Code:         r.Code,
		Name:         r.Name,
		Qty:          r.Qty,
		ReorderLevel: r.ReorderLevel,
		ExpiryDays:   r.ExpiryDays,
		Location:     r.Location,
	}.Clone()
}

func toRecipeRecord(r domain.Recipe) recipeRecord {
	rec := recipeRecord{ID: r.ID, Name: r.Name, Price: r.Price}
	for i, ing := range r.Ingredients {
		rec.Ingredients = append(rec.Ingredients, ingredientRecord{
			RecipeID:    r.ID,
			ItemID:      ing.ItemID,
			QtyRequired: ing.QtyRequired,
			Position:    i,
		})
	}
	return rec
}

// toDomain expects Ingredients already ordered by Position.
func (r recipeRecord) toDomain() domain.Recipe {
	out := domain.Recipe{ID: r.ID, Name: r.Name, Price: r.Price}
	for _, ing := range r.Ingredients {
		out.Ingredients = append(out.Ingredients, domain.RecipeIngredient{
			ItemID:      ing.ItemID,
			QtyRequired: ing.QtyRequired,
		})
	}
	return out
}

func toProcurementRecord(p domain.ProcurementRequest) procurementRecord {
	p = p.Clone()
	return procurementRecord{
		ID:           p.ID,
		ItemID:       p.ItemID,
		QtyRequested: p.QtyRequested,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		RequestedBy:  p.RequestedBy,
		ApprovedBy:   p.ApprovedBy,
		ApprovedAt:   p.ApprovedAt,
	}
}

func (r procurementRecord) toDomain() domain.ProcurementRequest {
	return domain.ProcurementRequest{
		ID:           r.ID,
		ItemID:       r.ItemID,
		QtyRequested: r.QtyRequested,
		Status:       domain.ProcurementStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		RequestedBy:  r.RequestedBy,
		ApprovedBy:   r.ApprovedBy,
		ApprovedAt:   r.ApprovedAt,
	}.Clone()
}
