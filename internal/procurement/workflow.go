// Package procurement keeps procurement requests and their one-way approval state machine:
// PENDING moves to APPROVED or REJECTED exactly once, and a request in any state may be
// removed.
package procurement

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/annalza/mint-stock-flow/internal/domain"
)

// ItemLookup resolves item references.
type ItemLookup interface {
	GetItem(id int64) (domain.Item, error)
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// Workflow owns procurement requests.
type Workflow struct {
	items ItemLookup
	now   func() time.Time

	mu       sync.RWMutex
	requests map[int64]domain.ProcurementRequest
	nextID   int64
}

// NewWorkflow returns a workflow with no requests.
func NewWorkflow(items ItemLookup, opts ...Option) *Workflow {
	w := &Workflow{
		items:    items,
		now:      time.Now,
		requests: make(map[int64]domain.ProcurementRequest),
		nextID:   1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Load registers existing requests. Ids of new submissions continue after the highest
// loaded id.
func (w *Workflow) Load(requests []domain.ProcurementRequest) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[int64]struct{}, len(requests))
	for _, r := range requests {
		if err := w.validate(r); err != nil {
			return err
		}
		if _, dup := w.requests[r.ID]; dup {
			return fmt.Errorf("%w: duplicate procurement id %d", domain.ErrInvalidArgument, r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate procurement id %d", domain.ErrInvalidArgument, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	for _, r := range requests {
		w.requests[r.ID] = r.Clone()
		if r.ID >= w.nextID {
			w.nextID = r.ID + 1
		}
	}
	return nil
}

// Reserve keeps ids up to lastID out of circulation, so requests removed before a
// restart never hand their id to a new submission.
func (w *Workflow) Reserve(lastID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if lastID >= w.nextID {
		w.nextID = lastID + 1
	}
}

func (w *Workflow) validate(r domain.ProcurementRequest) error {
	if r.ID <= 0 {
		return fmt.Errorf("%w: procurement id must be positive", domain.ErrInvalidArgument)
	}
	if r.QtyRequested <= 0 {
		return fmt.Errorf("procurement %d: %w", r.ID, domain.ErrInvalidQuantity)
	}
	if _, err := w.items.GetItem(r.ItemID); err != nil {
		return fmt.Errorf("procurement %d: %w", r.ID, err)
	}
	decided := r.ApprovedBy != nil && r.ApprovedAt != nil
	switch r.Status {
	case domain.ProcurementPending:
		if r.ApprovedBy != nil || r.ApprovedAt != nil {
			return fmt.Errorf("%w: pending procurement %d carries an approval", domain.ErrInvalidState, r.ID)
		}
	case domain.ProcurementApproved, domain.ProcurementRejected:
		if !decided {
			return fmt.Errorf("%w: procurement %d is %s without approver", domain.ErrInvalidState, r.ID, r.Status)
		}
	default:
		return fmt.Errorf("%w: procurement %d has status %q", domain.ErrInvalidState, r.ID, r.Status)
	}
	return nil
}

// Get returns one request.
func (w *Workflow) Get(id int64) (domain.ProcurementRequest, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	r, ok := w.requests[id]
	if !ok {
		return domain.ProcurementRequest{}, notFound(id)
	}
	return r.Clone(), nil
}

// Submit files a new PENDING request.
func (w *Workflow) Submit(itemID int64, qty int, requestedBy string) (domain.ProcurementRequest, error) {
	if qty <= 0 {
		return domain.ProcurementRequest{}, fmt.Errorf("%w: %d must be positive", domain.ErrInvalidQuantity, qty)
	}
	if _, err := w.items.GetItem(itemID); err != nil {
		return domain.ProcurementRequest{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	r := domain.ProcurementRequest{
		ID:           w.nextID,
		ItemID:       itemID,
		QtyRequested: qty,
		Status:       domain.ProcurementPending,
		CreatedAt:    w.now().UTC(),
		RequestedBy:  strings.TrimSpace(requestedBy),
	}
	w.nextID++
	w.requests[r.ID] = r
	return r.Clone(), nil
}

// Approve moves a PENDING request to APPROVED. Stock is not touched.
func (w *Workflow) Approve(id int64, approver string) (domain.ProcurementRequest, error) {
	return w.decide(id, approver, domain.ProcurementApproved)
}

// Reject moves a PENDING request to REJECTED.
func (w *Workflow) Reject(id int64, approver string) (domain.ProcurementRequest, error) {
	return w.decide(id, approver, domain.ProcurementRejected)
}

func (w *Workflow) decide(id int64, approver string, to domain.ProcurementStatus) (domain.ProcurementRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	r, ok := w.requests[id]
	if !ok {
		return domain.ProcurementRequest{}, notFound(id)
	}
	if r.Status != domain.ProcurementPending {
		return domain.ProcurementRequest{}, fmt.Errorf("procurement %d is %s, cannot move to %s: %w",
			id, r.Status, to, domain.ErrInvalidState)
	}
	approver = strings.TrimSpace(approver)
	if approver == "" {
		return domain.ProcurementRequest{}, fmt.Errorf("%w: approver is required", domain.ErrInvalidArgument)
	}

	at := w.now().UTC()
	r.Status = to
	r.ApprovedBy = &approver
	r.ApprovedAt = &at
	w.requests[id] = r
	return r.Clone(), nil
}

// Remove deletes a request whatever its status.
func (w *Workflow) Remove(id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.requests[id]; !ok {
		return notFound(id)
	}
	delete(w.requests, id)
	return nil
}

// List returns the requests passing the filter, newest first with ties broken by
// descending id.
func (w *Workflow) List(filter domain.Filter) []domain.ProcurementRequest {
	w.mu.RLock()
	out := make([]domain.ProcurementRequest, 0, len(w.requests))
	for _, r := range w.requests {
		if filter.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	w.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.ProcurementRequest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

// Counts tallies requests per status.
func (w *Workflow) Counts() domain.ProcurementCounts {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var c domain.ProcurementCounts
	for _, r := range w.requests {
		c.All++
		switch r.Status {
		case domain.ProcurementPending:
			c.Pending++
		case domain.ProcurementApproved:
			c.Approved++
		case domain.ProcurementRejected:
			c.Rejected++
		}
	}
	return c
}

func notFound(id int64) error {
	return fmt.Errorf("procurement %d: %w", id, domain.ErrNotFound)
}
