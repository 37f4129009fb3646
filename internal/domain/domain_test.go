package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestStockStatusOf(t *testing.T) {
	tests := []struct {
		name         string
		qty, reorder int
		expected     StockStatus
	}{
		{"empty", 0, 10, StatusOutOfStock},
		{"negative", -1, 0, StatusOutOfStock},
		{"empty with zero reorder level", 0, 0, StatusOutOfStock},
		{"one unit", 1, 10, StatusLowStock},
		{"at reorder level", 10, 10, StatusLowStock},
		{"above reorder level", 11, 10, StatusInStock},
		{"zero reorder level", 1, 0, StatusInStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StockStatusOf(tt.qty, tt.reorder); got != tt.expected {
				t.Fatalf("StockStatusOf(%d, %d) = %s, expected %s", tt.qty, tt.reorder, got, tt.expected)
			}
		})
	}
}

func TestItemViewTracksQty(t *testing.T) {
	it := Item{ID: 1, Code: "ITM001", Qty: 5, ReorderLevel: 5}
	if v := it.View(); v.Status != StatusLowStock || v.Item.Qty != 5 {
		t.Fatalf("unexpected view %+v", v)
	}
	it.Qty = 6
	if v := it.View(); v.Status != StatusInStock {
		t.Fatalf("expected IN_STOCK after qty change, got %s", v.Status)
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{ErrNotFound, "NotFound"},
		{ErrInvalidQuantity, "InvalidQuantity"},
		{ErrInvalidState, "InvalidState"},
		{ErrInsufficientStock, "InsufficientStock"},
		{ErrInvalidArgument, "InvalidArgument"},
		{fmt.Errorf("item 7: %w", ErrNotFound), "NotFound"},
		{fmt.Errorf("sell: %w", fmt.Errorf("flour: %w", ErrInsufficientStock)), "InsufficientStock"},
		{errors.New("disk full"), "Internal"},
		{nil, "Internal"},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.expected {
			t.Fatalf("Kind(%v) = %s, expected %s", tt.err, got, tt.expected)
		}
	}
}

func TestItemCloneIsDetached(t *testing.T) {
	days := 7
	orig := Item{ID: 3, Code: "ITM003", Qty: 30, ExpiryDays: &days}
	cp := orig.Clone()
	*cp.ExpiryDays = 1
	cp.Qty = 0
	if *orig.ExpiryDays != 7 || orig.Qty != 30 {
		t.Fatalf("clone shares state with original: %+v", orig)
	}
	if (Item{}).Clone().ExpiryDays != nil {
		t.Fatal("clone invented an expiry")
	}
}

func TestRecipeCloneIsDetached(t *testing.T) {
	orig := Recipe{ID: 1, Name: "Bread", Price: decimal.RequireFromString("3.50"),
		Ingredients: []RecipeIngredient{{ItemID: 1, QtyRequired: 2}}}
	cp := orig.Clone()
	cp.Ingredients[0].QtyRequired = 99
	if orig.Ingredients[0].QtyRequired != 2 {
		t.Fatalf("clone shares ingredients with original: %+v", orig.Ingredients)
	}
	if !cp.Price.Equal(orig.Price) {
		t.Fatalf("price changed: %s", cp.Price)
	}
}

func TestProcurementCloneIsDetached(t *testing.T) {
	by := "Admin"
	at := time.Date(2025, 9, 10, 9, 0, 0, 0, time.UTC)
	orig := ProcurementRequest{ID: 2, Status: ProcurementApproved, ApprovedBy: &by, ApprovedAt: &at}
	cp := orig.Clone()
	*cp.ApprovedBy = "Mallory"
	*cp.ApprovedAt = at.Add(time.Hour)
	if *orig.ApprovedBy != "Admin" || !orig.ApprovedAt.Equal(at) {
		t.Fatalf("clone shares approval with original: %+v", orig)
	}

	pending := ProcurementRequest{ID: 1, Status: ProcurementPending}.Clone()
	if pending.ApprovedBy != nil || pending.ApprovedAt != nil {
		t.Fatalf("clone invented an approval: %+v", pending)
	}
}

func TestFilterMatches(t *testing.T) {
	approved := ProcurementRequest{Status: ProcurementApproved}
	tests := []struct {
		filter   Filter
		expected bool
	}{
		{FilterAll, true},
		{FilterApproved, true},
		{FilterPending, false},
		{FilterRejected, false},
	}
	for _, tt := range tests {
		if got := tt.filter.Matches(approved); got != tt.expected {
			t.Fatalf("%s.Matches(APPROVED) = %v", tt.filter, got)
		}
	}
}
