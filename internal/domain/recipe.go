package domain

import "github.com/shopspring/decimal"

// RecipeIngredient is one line of a recipe's bill of items.
type RecipeIngredient struct {
	ItemID      int64 `json:"item_id"`
	QtyRequired int   `json:"qty_required"`
}

// Recipe is a finished good whose sale consumes its ingredients from stock.
type Recipe struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Price       decimal.Decimal    `json:"price"`
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// Clone returns a copy with its own ingredient slice.
func (r Recipe) Clone() Recipe {
	r.Ingredients = append([]RecipeIngredient(nil), r.Ingredients...)
	return r
}

// IngredientView pairs an ingredient with the ledger state it was checked against.
type IngredientView struct {
	ItemID       int64  `json:"item_id"`
	Name         string `json:"name"`
	QtyRequired  int    `json:"qty_required"`
	AvailableQty int    `json:"available_qty"`
}

// RecipeView is a recipe with feasibility computed at read time.
type RecipeView struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	Ingredients []IngredientView `json:"items"`
	CanMake     bool             `json:"can_make"`
}

// SaleResult reports a committed sale.
type SaleResult struct {
	RecipeID int64           `json:"recipe_id"`
	Name     string          `json:"name"`
	Revenue  decimal.Decimal `json:"revenue"`
	Items    []Item          `json:"items"`
}
