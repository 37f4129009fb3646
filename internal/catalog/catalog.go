// Package catalog holds the reference catalog the operations front end starts with
// and loads a catalog snapshot into the core components.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/annalza/mint-stock-flow/internal/domain"
)

// Item ids of the default catalog.
const (
	FlourID  int64 = 1
	SugarID  int64 = 2
	EggsID   int64 = 3
	MilkID   int64 = 4
	ButterID int64 = 5
)

// Recipe ids of the default catalog.
const (
	ChocolateCakeID int64 = 1
	VanillaMuffinID int64 = 2
	BreadLoafID     int64 = 3
)

// Snapshot is the full state of the core components at one point in time.
type Snapshot struct {
	Items        []domain.Item
	Recipes      []domain.Recipe
	Procurements []domain.ProcurementRequest
	// LastProcurementID is the highest procurement id ever issued, removed requests
	// included. New submissions are numbered after it.
	LastProcurementID int64
}

// Empty reports whether the snapshot holds no catalog at all.
func (s Snapshot) Empty() bool {
	return len(s.Items) == 0 && len(s.Recipes) == 0 && len(s.Procurements) == 0 &&
		s.LastProcurementID == 0
}

func days(n int) *int { return &n }

// DefaultItems is the stock list the business starts from.
func DefaultItems() []domain.Item {
	return []domain.Item{
		{ID: FlourID, Code: "ITM001", Name: "Flour", Qty: 100, ReorderLevel: 20, ExpiryDays: days(365), Location: "Warehouse A"},
		{ID: SugarID, Code: "ITM002", Name: "Sugar", Qty: 50, ReorderLevel: 10, ExpiryDays: days(730), Location: "Warehouse A"},
		{ID: EggsID, Code: "ITM003", Name: "Eggs", Qty: 30, ReorderLevel: 5, ExpiryDays: days(7), Location: "Cold Storage"},
		{ID: MilkID, Code: "ITM004", Name: "Milk", Qty: 25, ReorderLevel: 8, ExpiryDays: days(3), Location: "Cold Storage"},
		{ID: ButterID, Code: "ITM005", Name: "Butter", Qty: 15, ReorderLevel: 3, ExpiryDays: days(14), Location: "Cold Storage"},
	}
}

// DefaultRecipes is the product list sold over the counter.
func DefaultRecipes() []domain.Recipe {
	return []domain.Recipe{
		{
			ID:    ChocolateCakeID,
			Name:  "Chocolate Cake",
			Price: decimal.RequireFromString("25.00"),
			Ingredients: []domain.RecipeIngredient{
				{ItemID: FlourID, QtyRequired: 2},
				{ItemID: SugarID, QtyRequired: 1},
				{ItemID: EggsID, QtyRequired: 3},
			},
		},
		{
			ID:    VanillaMuffinID,
			Name:  "Vanilla Muffin",
			Price: decimal.RequireFromString("5.00"),
			Ingredients: []domain.RecipeIngredient{
				{ItemID: FlourID, QtyRequired: 1},
				{ItemID: SugarID, QtyRequired: 1},
			},
		},
		{
			ID:    BreadLoafID,
			Name:  "Bread Loaf",
			Price: decimal.RequireFromString("8.50"),
			Ingredients: []domain.RecipeIngredient{
				{ItemID: FlourID, QtyRequired: 3},
				{ItemID: MilkID, QtyRequired: 1},
			},
		},
	}
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

// DefaultProcurements are the requests already on file.
func DefaultProcurements() []domain.ProcurementRequest {
	return []domain.ProcurementRequest{
		{
			ID: 1, ItemID: FlourID, QtyRequested: 50, Status: domain.ProcurementPending,
			CreatedAt: date("2025-09-09"), RequestedBy: "John Doe",
		},
		{
			ID: 2, ItemID: EggsID, QtyRequested: 20, Status: domain.ProcurementApproved,
			CreatedAt: date("2025-09-08"), RequestedBy: "Jane Smith",
			ApprovedBy: ptr("Admin"), ApprovedAt: ptr(date("2025-09-09")),
		},
		{
			ID: 3, ItemID: SugarID, QtyRequested: 30, Status: domain.ProcurementRejected,
			CreatedAt: date("2025-09-07"), RequestedBy: "Mike Johnson",
			ApprovedBy: ptr("Admin"), ApprovedAt: ptr(date("2025-09-08")),
		},
	}
}

// Default returns the full reference catalog.
func Default() Snapshot {
	return Snapshot{
		Items:        DefaultItems(),
		Recipes:      DefaultRecipes(),
		Procurements: DefaultProcurements(),
	}
}
