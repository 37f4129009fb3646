// Package recipe derives sale feasibility from the inventory ledger and turns a sale
// into ingredient deductions.
package recipe

import (
	"fmt"
	"strings"
	"sync"

	"github.com/annalza/mint-stock-flow/internal/domain"
)

// Ledger is the part of the inventory ledger the engine reads and writes through.
type Ledger interface {
	GetItem(id int64) (domain.Item, error)
	Consume(lines []domain.StockLine) ([]domain.Item, error)
}

// Engine owns recipe definitions.
type Engine struct {
	ledger Ledger

	mu      sync.RWMutex
	recipes map[int64]domain.Recipe
	order   []int64

	// sales serializes the revalidation and deduction of one sale.
	sales sync.Mutex
}

// NewEngine returns an engine with no recipes.
func NewEngine(ledger Ledger) *Engine {
	return &Engine{
		ledger:  ledger,
		recipes: make(map[int64]domain.Recipe),
	}
}

// Load registers recipes in order. Every ingredient must reference an existing item.
func (e *Engine) Load(recipes []domain.Recipe) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[int64]struct{}, len(recipes))
	for _, r := range recipes {
		if err := e.validate(r); err != nil {
			return err
		}
		if _, dup := e.recipes[r.ID]; dup {
			return fmt.Errorf("%w: duplicate recipe id %d", domain.ErrInvalidArgument, r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate recipe id %d", domain.ErrInvalidArgument, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	for _, r := range recipes {
		e.recipes[r.ID] = r.Clone()
		e.order = append(e.order, r.ID)
	}
	return nil
}

func (e *Engine) validate(r domain.Recipe) error {
	if r.ID <= 0 {
		return fmt.Errorf("%w: recipe id must be positive", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: recipe %d has no name", domain.ErrInvalidArgument, r.ID)
	}
	if r.Price.IsNegative() {
		return fmt.Errorf("%w: recipe %d has a negative price", domain.ErrInvalidArgument, r.ID)
	}
	items := make(map[int64]struct{}, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if ing.QtyRequired <= 0 {
			return fmt.Errorf("recipe %d ingredient %d: %w", r.ID, ing.ItemID, domain.ErrInvalidQuantity)
		}
		if _, dup := items[ing.ItemID]; dup {
			return fmt.Errorf("%w: recipe %d lists item %d twice", domain.ErrInvalidArgument, r.ID, ing.ItemID)
		}
		items[ing.ItemID] = struct{}{}
		if _, err := e.ledger.GetItem(ing.ItemID); err != nil {
			return fmt.Errorf("recipe %d: %w", r.ID, err)
		}
	}
	return nil
}

// GetRecipe returns the recipe definition.
func (e *Engine) GetRecipe(id int64) (domain.Recipe, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, ok := e.recipes[id]
	if !ok {
		return domain.Recipe{}, fmt.Errorf("recipe %d: %w", id, domain.ErrNotFound)
	}
	return r.Clone(), nil
}

// ListRecipes returns every recipe with feasibility computed against the ledger now.
func (e *Engine) ListRecipes() ([]domain.RecipeView, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.RecipeView, 0, len(e.order))
	for _, id := range e.order {
		view, err := e.view(e.recipes[id])
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// View returns one recipe with its feasibility.
func (e *Engine) View(id int64) (domain.RecipeView, error) {
	r, err := e.GetRecipe(id)
	if err != nil {
		return domain.RecipeView{}, err
	}
	return e.view(r)
}

func (e *Engine) view(r domain.Recipe) (domain.RecipeView, error) {
	v := domain.RecipeView{
		ID:          r.ID,
		Name:        r.Name,
		Price:       r.Price,
		Ingredients: make([]domain.IngredientView, 0, len(r.Ingredients)),
		CanMake:     true,
	}
	for _, ing := range r.Ingredients {
		it, err := e.ledger.GetItem(ing.ItemID)
		if err != nil {
			return domain.RecipeView{}, fmt.Errorf("recipe %d: %w", r.ID, err)
		}
		if it.Qty < ing.QtyRequired {
			v.CanMake = false
		}
		v.Ingredients = append(v.Ingredients, domain.IngredientView{
			ItemID:       it.ID,
			Name:         it.Name,
			QtyRequired:  ing.QtyRequired,
			AvailableQty: it.Qty,
		})
	}
	return v, nil
}

// CanMake reports whether every ingredient is covered by current stock. A missing
// ingredient item counts as a shortfall.
func (e *Engine) CanMake(r domain.Recipe) bool {
	for _, ing := range r.Ingredients {
		it, err := e.ledger.GetItem(ing.ItemID)
		if err != nil || it.Qty < ing.QtyRequired {
			return false
		}
	}
	return true
}

// Sell revalidates the recipe against current stock and deducts every ingredient.
// On ErrInsufficientStock the ledger is left untouched.
func (e *Engine) Sell(recipeID int64) (domain.SaleResult, error) {
	r, err := e.GetRecipe(recipeID)
	if err != nil {
		return domain.SaleResult{}, err
	}

	e.sales.Lock()
	defer e.sales.Unlock()

	if !e.CanMake(r) {
		return domain.SaleResult{}, fmt.Errorf("sell %q: %w", r.Name, domain.ErrInsufficientStock)
	}

	lines := make([]domain.StockLine, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		lines = append(lines, domain.StockLine{ItemID: ing.ItemID, Qty: ing.QtyRequired})
	}
	items, err := e.ledger.Consume(lines)
	if err != nil {
		return domain.SaleResult{}, fmt.Errorf("sell %q: %w", r.Name, err)
	}

	return domain.SaleResult{
		RecipeID: r.ID,
		Name:     r.Name,
		Revenue:  r.Price,
		Items:    items,
	}, nil
}
