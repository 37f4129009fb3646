package recipe_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/annalza/mint-stock-flow/internal/catalog"
	"github.com/annalza/mint-stock-flow/internal/domain"
	"github.com/annalza/mint-stock-flow/internal/inventory"
	"github.com/annalza/mint-stock-flow/internal/recipe"
)

func setup(t *testing.T) (*inventory.Ledger, *recipe.Engine) {
	t.Helper()
	l := inventory.NewLedger()
	if err := l.Load(catalog.DefaultItems()); err != nil {
		t.Fatalf("Load items: %v", err)
	}
	e := recipe.NewEngine(l)
	if err := e.Load(catalog.DefaultRecipes()); err != nil {
		t.Fatalf("Load recipes: %v", err)
	}
	return l, e
}

func TestListRecipesComputesFeasibility(t *testing.T) {
	l, e := setup(t)
	views, err := e.ListRecipes()
	if err != nil {
		t.Fatalf("ListRecipes: %v", err)
	}
	if len(views) != 3 || views[0].Name != "Chocolate Cake" {
		t.Fatalf("unexpected recipes %+v", views)
	}
	for _, v := range views {
		if !v.CanMake {
			t.Fatalf("%s should be makeable from the default catalog", v.Name)
		}
	}
	if got := views[0].Ingredients[0]; got.Name != "Flour" || got.QtyRequired != 2 || got.AvailableQty != 100 {
		t.Fatalf("unexpected ingredient view %+v", got)
	}

	if _, err := l.Issue(catalog.MilkID, 25); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	views, _ = e.ListRecipes()
	if views[2].CanMake {
		t.Fatalf("Bread Loaf should not be makeable without milk")
	}
	if !views[0].CanMake || !views[1].CanMake {
		t.Fatalf("recipes without milk should stay makeable")
	}
}

func TestCanMake(t *testing.T) {
	_, e := setup(t)
	cases := []struct {
		name     string
		recipe   domain.Recipe
		expected bool
	}{
		{"exact stock", domain.Recipe{Ingredients: []domain.RecipeIngredient{{ItemID: catalog.EggsID, QtyRequired: 30}}}, true},
		{"one short", domain.Recipe{Ingredients: []domain.RecipeIngredient{{ItemID: catalog.EggsID, QtyRequired: 31}}}, false},
		{"second ingredient short", domain.Recipe{Ingredients: []domain.RecipeIngredient{
			{ItemID: catalog.FlourID, QtyRequired: 1},
			{ItemID: catalog.ButterID, QtyRequired: 16},
		}}, false},
		{"unknown item", domain.Recipe{Ingredients: []domain.RecipeIngredient{{ItemID: 77, QtyRequired: 1}}}, false},
		{"no ingredients", domain.Recipe{}, true},
	}
	for _, tc := range cases {
		if got := e.CanMake(tc.recipe); got != tc.expected {
			t.Fatalf("%s: CanMake expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestSellDeductsEveryIngredient(t *testing.T) {
	l, e := setup(t)
	res, err := e.Sell(catalog.ChocolateCakeID)
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if !res.Revenue.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("expected revenue 25, got %s", res.Revenue)
	}
	want := map[int64]int{catalog.FlourID: 98, catalog.SugarID: 49, catalog.EggsID: 27}
	for id, qty := range want {
		it, _ := l.GetItem(id)
		if it.Qty != qty {
			t.Fatalf("item %d expected %d, got %d", id, qty, it.Qty)
		}
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 updated items, got %d", len(res.Items))
	}
}

func TestSellInsufficientLeavesLedgerUnchanged(t *testing.T) {
	l, e := setup(t)
	if _, err := l.Issue(catalog.EggsID, 28); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	before := l.ListItems()

	_, err := e.Sell(catalog.ChocolateCakeID)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	after := l.ListItems()
	for i := range before {
		if before[i].Qty != after[i].Qty {
			t.Fatalf("%s changed from %d to %d", before[i].Name, before[i].Qty, after[i].Qty)
		}
	}
}

func TestSellUnknownRecipe(t *testing.T) {
	_, e := setup(t)
	if _, err := e.Sell(42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	l, e := setup(t)
	// 30 eggs cover exactly 10 cakes.
	var wg sync.WaitGroup
	var mu sync.Mutex
	sold := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Sell(catalog.ChocolateCakeID); err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if sold != 10 {
		t.Fatalf("expected 10 sales, got %d", sold)
	}
	eggs, _ := l.GetItem(catalog.EggsID)
	if eggs.Qty != 0 {
		t.Fatalf("expected no eggs left, got %d", eggs.Qty)
	}
}

func TestLoadValidatesIngredients(t *testing.T) {
	_, e := setup(t)
	cases := []struct {
		name   string
		recipe domain.Recipe
		target error
	}{
		{"unknown item", domain.Recipe{ID: 10, Name: "Ghost", Ingredients: []domain.RecipeIngredient{{ItemID: 99, QtyRequired: 1}}}, domain.ErrNotFound},
		{"zero qty", domain.Recipe{ID: 11, Name: "Air", Ingredients: []domain.RecipeIngredient{{ItemID: catalog.FlourID}}}, domain.ErrInvalidQuantity},
		{"duplicate id", domain.Recipe{ID: catalog.BreadLoafID, Name: "Again"}, domain.ErrInvalidArgument},
		{"duplicate ingredient", domain.Recipe{ID: 12, Name: "Twice", Ingredients: []domain.RecipeIngredient{
			{ItemID: catalog.FlourID, QtyRequired: 1},
			{ItemID: catalog.FlourID, QtyRequired: 1},
		}}, domain.ErrInvalidArgument},
	}
	for _, tc := range cases {
		if err := e.Load([]domain.Recipe{tc.recipe}); !errors.Is(err, tc.target) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.target, err)
		}
	}
}
