package operations

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/annalza/mint-stock-flow/internal/domain"
)

// ListRecipes returns every recipe with feasibility against current stock.
func (s *Service) ListRecipes(context.Context) ([]domain.RecipeView, error) {
	return s.recipes.ListRecipes()
}

func (s *Service) GetRecipe(_ context.Context, id int64) (domain.RecipeView, error) {
	return s.recipes.View(id)
}

// CanMake reports whether stock covers one unit of the recipe right now.
func (s *Service) CanMake(_ context.Context, id int64) (bool, error) {
	r, err := s.recipes.GetRecipe(id)
	if err != nil {
		return false, err
	}
	return s.recipes.CanMake(r), nil
}

// Sell consumes one unit of the recipe's ingredients. The sale lock keeps the
// feasibility check and the stock movement in one critical section.
func (s *Service) Sell(ctx context.Context, recipeID int64) (res domain.SaleResult, err error) {
	ctx, end := s.startSpan(ctx, "recipe.sell", attribute.Int64("recipe.id", recipeID))
	defer func() { end(err) }()

	held, err := s.locker.Obtain(ctx, SaleLockKey)
	if err != nil {
		return domain.SaleResult{}, fmt.Errorf("obtain sale lock: %w", err)
	}
	defer func() {
		if rerr := held.Release(context.WithoutCancel(ctx)); rerr != nil {
			s.logger.Warn("⚠️ Failed to release sale lock", zap.Error(rerr))
		}
	}()

	res, err = s.recipes.Sell(recipeID)
	if err != nil {
		s.logger.Warn("⚠️ Sale refused", zap.Error(err), zap.Int64("recipe_id", recipeID))
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.metrics.sales.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "insufficient")))
		}
		return domain.SaleResult{}, err
	}

	revenue, _ := res.Revenue.Float64()
	s.logger.Info("🧁 Recipe sold",
		zap.Int64("recipe_id", res.RecipeID),
		zap.String("recipe", res.Name),
		zap.String("revenue", res.Revenue.StringFixed(2)),
	)
	for _, it := range res.Items {
		s.warnIfLow(it)
	}

	s.metrics.sales.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", "sold"),
		attribute.String("recipe", res.Name),
	))
	s.metrics.revenue.Add(ctx, revenue, metric.WithAttributes(attribute.String("recipe", res.Name)))
	if r, err := s.recipes.GetRecipe(recipeID); err == nil {
		for _, ing := range r.Ingredients {
			s.metrics.movements.Add(ctx, int64(ing.QtyRequired), metric.WithAttributes(attribute.String("kind", "sale")))
		}
	}
	s.commit(ctx, domain.NewEvent(domain.EventRecipeSold, "recipe-"+strconv.FormatInt(res.RecipeID, 10), res, s.now()),
		func(ctx context.Context) error { return s.store.SaveItems(ctx, res.Items...) })
	return res, nil
}
