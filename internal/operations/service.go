// Package operations is the front door of the stock engine. It runs each command
// against the in-memory core and, once the core has committed, writes the change
// through to storage and publishes it as an event.
package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/annalza/mint-stock-flow/internal/catalog"
	"github.com/annalza/mint-stock-flow/internal/config"
	"github.com/annalza/mint-stock-flow/internal/domain"
	"github.com/annalza/mint-stock-flow/internal/events"
	"github.com/annalza/mint-stock-flow/internal/inventory"
	"github.com/annalza/mint-stock-flow/internal/lock"
	"github.com/annalza/mint-stock-flow/internal/platform/observability"
	"github.com/annalza/mint-stock-flow/internal/procurement"
	"github.com/annalza/mint-stock-flow/internal/recipe"
	"github.com/annalza/mint-stock-flow/internal/storage"
)

// SaleLockKey guards the check-then-consume section of a sale.
const SaleLockKey = config.ServiceName + ":sale"

// Deps are the collaborators of a Service. Nil fields fall back to in-process or
// no-op implementations.
type Deps struct {
	Logger    observability.Logger
	Tracer    observability.Tracer
	Meter     metric.Meter
	Store     storage.Store
	Locker    lock.Locker
	Publisher events.Publisher
	Strict    bool
	Now       func() time.Time
}

// Service owns the ledger, the recipe engine and the procurement workflow.
type Service struct {
	ledger       *inventory.Ledger
	recipes      *recipe.Engine
	procurements *procurement.Workflow

	store     storage.Store
	locker    lock.Locker
	publisher events.Publisher
	logger    observability.Logger
	tracer    observability.Tracer
	metrics   *metrics
	now       func() time.Time
}

// NewService wires an empty core. Call Restore before serving traffic.
func NewService(d Deps) (*Service, error) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Tracer == nil {
		d.Tracer = otel.Tracer(config.ServiceName)
	}
	if d.Meter == nil {
		d.Meter = otel.Meter(config.ServiceName)
	}
	if d.Store == nil {
		d.Store = storage.NewMemory()
	}
	if d.Locker == nil {
		d.Locker = lock.NewLocal()
	}
	if d.Publisher == nil {
		d.Publisher = events.Discard{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	m, err := newMetrics(d.Meter)
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	ledger := inventory.NewLedger(inventory.WithStrictIssue(d.Strict))
	return &Service{
		ledger:       ledger,
		recipes:      recipe.NewEngine(ledger),
		procurements: procurement.NewWorkflow(ledger, procurement.WithClock(d.Now)),
		store:        d.Store,
		locker:       d.Locker,
		publisher:    d.Publisher,
		logger:       d.Logger,
		tracer:       d.Tracer,
		metrics:      m,
		now:          d.Now,
	}, nil
}

// Restore loads the persisted state into the core. An empty store is seeded with the
// default catalog when seed is set.
func (s *Service) Restore(ctx context.Context, seed bool) (err error) {
	ctx, end := s.startSpan(ctx, "state.restore", attribute.Bool("catalog.seed", seed))
	defer func() { end(err) }()

	snapshot, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load persisted state: %w", err)
	}

	if snapshot.Empty() && seed {
		snapshot = catalog.Default()
		if err := s.store.Seed(ctx, snapshot); err != nil {
			return fmt.Errorf("seed default catalog: %w", err)
		}
		s.logger.Info("🌱 Seeded default catalog")
	}

	if err := catalog.Load(snapshot, s.ledger, s.recipes, s.procurements); err != nil {
		return err
	}

	s.logger.Info("✅ State restored",
		zap.Int("items", len(snapshot.Items)),
		zap.Int("recipes", len(snapshot.Recipes)),
		zap.Int("procurement_requests", len(snapshot.Procurements)),
	)
	return nil
}

// startSpan opens a span and returns the function that closes it with the outcome.
func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.kind", domain.Kind(err)))
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// commit writes a committed change through to storage and announces it. Neither step
// can undo the change, so failures are logged and swallowed.
func (s *Service) commit(ctx context.Context, event domain.Event, persist func(context.Context) error) {
	if err := persist(ctx); err != nil {
		s.logger.Error("❌ Write-through failed",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("key", event.Key),
		)
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("⚠️ Event not delivered",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
		)
	}
}
