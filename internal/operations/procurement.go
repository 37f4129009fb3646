package operations

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/annalza/mint-stock-flow/internal/domain"
)

func (s *Service) viewOf(p domain.ProcurementRequest) domain.ProcurementView {
	v := domain.ProcurementView{ProcurementRequest: p}
	if it, err := s.ledger.GetItem(p.ItemID); err == nil {
		v.ItemName = it.Name
		v.ItemCode = it.Code
	}
	return v
}

func (s *Service) GetProcurement(_ context.Context, id int64) (domain.ProcurementView, error) {
	p, err := s.procurements.Get(id)
	if err != nil {
		return domain.ProcurementView{}, err
	}
	return s.viewOf(p), nil
}

// ListProcurements returns matching requests, newest first.
func (s *Service) ListProcurements(_ context.Context, filter domain.Filter) []domain.ProcurementView {
	requests := s.procurements.List(filter)
	views := make([]domain.ProcurementView, 0, len(requests))
	for _, p := range requests {
		views = append(views, s.viewOf(p))
	}
	return views
}

func (s *Service) ProcurementCounts(context.Context) domain.ProcurementCounts {
	return s.procurements.Counts()
}

// Submit files a new PENDING request.
func (s *Service) Submit(ctx context.Context, itemID int64, qty int, requestedBy string) (view domain.ProcurementView, err error) {
	ctx, end := s.startSpan(ctx, "procurement.submit",
		attribute.Int64("item.id", itemID),
		attribute.Int("procurement.qty", qty),
	)
	defer func() { end(err) }()

	p, err := s.procurements.Submit(itemID, qty, requestedBy)
	if err != nil {
		s.logger.Warn("⚠️ Procurement request refused", zap.Error(err), zap.Int64("item_id", itemID), zap.Int("qty", qty))
		return domain.ProcurementView{}, err
	}

	s.logger.Info("📝 Procurement requested",
		zap.Int64("procurement_id", p.ID),
		zap.Int64("item_id", p.ItemID),
		zap.Int("qty", p.QtyRequested),
		zap.String("requested_by", p.RequestedBy),
	)
	return s.transitioned(ctx, domain.EventProcurementSubmitted, p), nil
}

// Approve moves a PENDING request to APPROVED.
func (s *Service) Approve(ctx context.Context, id int64, approver string) (domain.ProcurementView, error) {
	return s.decide(ctx, id, approver, domain.ProcurementApproved)
}

// Reject moves a PENDING request to REJECTED.
func (s *Service) Reject(ctx context.Context, id int64, approver string) (domain.ProcurementView, error) {
	return s.decide(ctx, id, approver, domain.ProcurementRejected)
}

func (s *Service) decide(ctx context.Context, id int64, approver string, to domain.ProcurementStatus) (view domain.ProcurementView, err error) {
	name := "procurement.approve"
	if to == domain.ProcurementRejected {
		name = "procurement.reject"
	}
	ctx, end := s.startSpan(ctx, name,
		attribute.Int64("procurement.id", id),
		attribute.String("procurement.to", string(to)),
	)
	defer func() { end(err) }()

	var p domain.ProcurementRequest
	event := domain.EventProcurementApproved
	if to == domain.ProcurementApproved {
		p, err = s.procurements.Approve(id, approver)
	} else {
		event = domain.EventProcurementRejected
		p, err = s.procurements.Reject(id, approver)
	}
	if err != nil {
		s.logger.Warn("⚠️ Procurement decision refused",
			zap.Error(err),
			zap.Int64("procurement_id", id),
			zap.String("to", string(to)),
		)
		return domain.ProcurementView{}, err
	}

	s.logger.Info("✅ Procurement decided",
		zap.Int64("procurement_id", p.ID),
		zap.String("status", string(p.Status)),
		zap.String("approved_by", approver),
	)
	return s.transitioned(ctx, event, p), nil
}

// Remove deletes a request whatever its status.
func (s *Service) Remove(ctx context.Context, id int64) (err error) {
	ctx, end := s.startSpan(ctx, "procurement.remove", attribute.Int64("procurement.id", id))
	defer func() { end(err) }()

	if err := s.procurements.Remove(id); err != nil {
		s.logger.Warn("⚠️ Procurement removal refused", zap.Error(err), zap.Int64("procurement_id", id))
		return err
	}

	s.logger.Info("🗑️ Procurement removed", zap.Int64("procurement_id", id))
	s.metrics.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "REMOVED")))
	s.commit(ctx, domain.NewEvent(domain.EventProcurementRemoved, procurementKey(id), map[string]int64{"id": id}, s.now()),
		func(ctx context.Context) error { return s.store.DeleteProcurement(ctx, id) })
	return nil
}

func (s *Service) transitioned(ctx context.Context, event domain.EventType, p domain.ProcurementRequest) domain.ProcurementView {
	view := s.viewOf(p)
	s.metrics.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(p.Status))))
	s.commit(ctx, domain.NewEvent(event, procurementKey(p.ID), view, s.now()),
		func(ctx context.Context) error { return s.store.SaveProcurement(ctx, p) })
	return view
}

func procurementKey(id int64) string { return "procurement-" + strconv.FormatInt(id, 10) }
