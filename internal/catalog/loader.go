package catalog

import (
	"fmt"

	"github.com/annalza/mint-stock-flow/internal/domain"
)

// ItemLoader accepts catalog items.
type ItemLoader interface {
	Load(items []domain.Item) error
}

// RecipeLoader accepts recipe definitions.
type RecipeLoader interface {
	Load(recipes []domain.Recipe) error
}

// ProcurementLoader accepts existing procurement records and the id high-water mark.
type ProcurementLoader interface {
	Load(requests []domain.ProcurementRequest) error
	Reserve(lastID int64)
}

// Load feeds a snapshot into the components. Items go first since recipes and
// procurement requests reference them.
func Load(s Snapshot, items ItemLoader, recipes RecipeLoader, procurements ProcurementLoader) error {
	if err := items.Load(s.Items); err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	if err := recipes.Load(s.Recipes); err != nil {
		return fmt.Errorf("load recipes: %w", err)
	}
	if err := procurements.Load(s.Procurements); err != nil {
		return fmt.Errorf("load procurements: %w", err)
	}
	procurements.Reserve(s.LastProcurementID)
	return nil
}
