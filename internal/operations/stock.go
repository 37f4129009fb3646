package operations

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/annalza/mint-stock-flow/internal/domain"
)

// ListItems returns every item in catalog order.
func (s *Service) ListItems(context.Context) []domain.ItemView {
	items := s.ledger.ListItems()
	views := make([]domain.ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, it.View())
	}
	return views
}

func (s *Service) GetItem(_ context.Context, id int64) (domain.ItemView, error) {
	it, err := s.ledger.GetItem(id)
	if err != nil {
		return domain.ItemView{}, err
	}
	return it.View(), nil
}

func (s *Service) GetItemByCode(_ context.Context, code string) (domain.ItemView, error) {
	it, err := s.ledger.GetItemByCode(code)
	if err != nil {
		return domain.ItemView{}, err
	}
	return it.View(), nil
}

// Receive adds qty units to an item's stock.
func (s *Service) Receive(ctx context.Context, id int64, qty int) (view domain.ItemView, err error) {
	ctx, end := s.startSpan(ctx, "inventory.receive",
		attribute.Int64("item.id", id),
		attribute.Int("stock.qty", qty),
	)
	defer func() { end(err) }()

	it, err := s.ledger.Receive(id, qty)
	if err != nil {
		s.logger.Warn("⚠️ Receive refused", zap.Error(err), zap.Int64("item_id", id), zap.Int("qty", qty))
		return domain.ItemView{}, err
	}

	s.logger.Info("📦 Stock received",
		zap.Int64("item_id", it.ID),
		zap.String("item_code", it.Code),
		zap.Int("qty", qty),
		zap.Int("on_hand", it.Qty),
	)
	s.metrics.movements.Add(ctx, int64(qty), metric.WithAttributes(attribute.String("kind", "receive")))
	s.commit(ctx, domain.NewEvent(domain.EventStockReceived, itemKey(it.ID), it.View(), s.now()),
		func(ctx context.Context) error { return s.store.SaveItems(ctx, it) })
	return it.View(), nil
}

// Issue takes qty units out of an item's stock.
func (s *Service) Issue(ctx context.Context, id int64, qty int) (view domain.ItemView, err error) {
	ctx, end := s.startSpan(ctx, "inventory.issue",
		attribute.Int64("item.id", id),
		attribute.Int("stock.qty", qty),
		attribute.Bool("stock.strict", s.ledger.Strict()),
	)
	defer func() { end(err) }()

	it, err := s.ledger.Issue(id, qty)
	if err != nil {
		s.logger.Warn("⚠️ Issue refused", zap.Error(err), zap.Int64("item_id", id), zap.Int("qty", qty))
		return domain.ItemView{}, err
	}

	s.logger.Info("📤 Stock issued",
		zap.Int64("item_id", it.ID),
		zap.String("item_code", it.Code),
		zap.Int("qty", qty),
		zap.Int("on_hand", it.Qty),
	)
	s.warnIfLow(it)
	s.metrics.movements.Add(ctx, int64(qty), metric.WithAttributes(attribute.String("kind", "issue")))
	s.commit(ctx, domain.NewEvent(domain.EventStockIssued, itemKey(it.ID), it.View(), s.now()),
		func(ctx context.Context) error { return s.store.SaveItems(ctx, it) })
	return it.View(), nil
}

// EditMetadata changes an item's descriptive fields. Quantity is never touched.
func (s *Service) EditMetadata(ctx context.Context, id int64, patch domain.ItemPatch) (view domain.ItemView, err error) {
	ctx, end := s.startSpan(ctx, "inventory.edit", attribute.Int64("item.id", id))
	defer func() { end(err) }()

	it, err := s.ledger.EditMetadata(id, patch)
	if err != nil {
		s.logger.Warn("⚠️ Item edit refused", zap.Error(err), zap.Int64("item_id", id))
		return domain.ItemView{}, err
	}

	s.logger.Info("✏️ Item updated", zap.Int64("item_id", it.ID), zap.String("item_code", it.Code))
	s.commit(ctx, domain.NewEvent(domain.EventItemUpdated, itemKey(it.ID), it.View(), s.now()),
		func(ctx context.Context) error { return s.store.SaveItems(ctx, it) })
	return it.View(), nil
}

// ReceiveGoods books a delivery announced on the goods receipt topic.
func (s *Service) ReceiveGoods(ctx context.Context, receipt domain.GoodsReceivedEvent) (domain.Item, error) {
	id := receipt.ItemID
	if id == 0 {
		if receipt.ItemCode == "" {
			return domain.Item{}, fmt.Errorf("%w: goods receipt names no item", domain.ErrInvalidArgument)
		}
		it, err := s.ledger.GetItemByCode(receipt.ItemCode)
		if err != nil {
			return domain.Item{}, err
		}
		id = it.ID
	}

	view, err := s.Receive(ctx, id, receipt.Qty)
	if err != nil {
		return domain.Item{}, err
	}
	return view.Item, nil
}

func (s *Service) warnIfLow(it domain.Item) {
	if st := it.Status(); st != domain.StatusInStock {
		s.logger.Warn("⚠️ Item at or below reorder level",
			zap.Int64("item_id", it.ID),
			zap.String("item_code", it.Code),
			zap.String("status", string(st)),
			zap.Int("on_hand", it.Qty),
			zap.Int("reorder_level", it.ReorderLevel),
		)
	}
}

func itemKey(id int64) string { return "item-" + strconv.FormatInt(id, 10) }

