package inventory

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/annalza/mint-stock-flow/internal/domain"
)

// Option configures a Ledger.
type Option func(*Ledger)

// WithStrictIssue makes Issue fail with ErrInsufficientStock instead of clamping to zero.
func WithStrictIssue(strict bool) Option {
	return func(l *Ledger) { l.strict = strict }
}

// Ledger owns item records and is the only writer of item quantities.
type Ledger struct {
	mu     sync.RWMutex
	items  map[int64]*domain.Item
	byCode map[string]int64
	order  []int64
	strict bool
}

// NewLedger returns an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		items:  make(map[int64]*domain.Item),
		byCode: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Strict reports whether over-issuing fails instead of clamping.
func (l *Ledger) Strict() bool { return l.strict }

// Load appends catalog items in order. The whole batch is rejected if any item is invalid
// or collides with an existing id or code.
func (l *Ledger) Load(items []domain.Item) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make(map[int64]struct{}, len(items))
	codes := make(map[string]struct{}, len(items))
	for _, it := range items {
		if err := validateItem(it); err != nil {
			return err
		}
		if _, dup := l.items[it.ID]; dup {
			return fmt.Errorf("%w: duplicate item id %d", domain.ErrInvalidArgument, it.ID)
		}
		if _, dup := ids[it.ID]; dup {
			return fmt.Errorf("%w: duplicate item id %d", domain.ErrInvalidArgument, it.ID)
		}
		if _, dup := l.byCode[it.Code]; dup {
			return fmt.Errorf("%w: duplicate item code %q", domain.ErrInvalidArgument, it.Code)
		}
		if _, dup := codes[it.Code]; dup {
			return fmt.Errorf("%w: duplicate item code %q", domain.ErrInvalidArgument, it.Code)
		}
		ids[it.ID] = struct{}{}
		codes[it.Code] = struct{}{}
	}

	for _, it := range items {
		stored := it.Clone()
		l.items[it.ID] = &stored
		l.byCode[it.Code] = it.ID
		l.order = append(l.order, it.ID)
	}
	return nil
}

func validateItem(it domain.Item) error {
	switch {
	case it.ID <= 0:
		return fmt.Errorf("%w: item id must be positive", domain.ErrInvalidArgument)
	case strings.TrimSpace(it.Code) == "":
		return fmt.Errorf("%w: item %d has no code", domain.ErrInvalidArgument, it.ID)
	case strings.TrimSpace(it.Name) == "":
		return fmt.Errorf("%w: item %d has no name", domain.ErrInvalidArgument, it.ID)
	case it.Qty < 0:
		return fmt.Errorf("%w: item %d has negative qty", domain.ErrInvalidQuantity, it.ID)
	case it.ReorderLevel < 0:
		return fmt.Errorf("%w: item %d has negative reorder level", domain.ErrInvalidQuantity, it.ID)
	case it.ExpiryDays != nil && *it.ExpiryDays <= 0:
		return fmt.Errorf("%w: item %d expiry days must be positive", domain.ErrInvalidQuantity, it.ID)
	}
	return nil
}

// GetItem returns a snapshot of the item.
func (l *Ledger) GetItem(id int64) (domain.Item, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	it, ok := l.items[id]
	if !ok {
		return domain.Item{}, notFound(id)
	}
	return it.Clone(), nil
}

// GetItemByCode looks an item up by its catalog code.
func (l *Ledger) GetItemByCode(code string) (domain.Item, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	id, ok := l.byCode[strings.TrimSpace(code)]
	if !ok {
		return domain.Item{}, fmt.Errorf("item %q: %w", code, domain.ErrNotFound)
	}
	return l.items[id].Clone(), nil
}

// ListItems returns every item in catalog insertion order.
func (l *Ledger) ListItems() []domain.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Item, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.items[id].Clone())
	}
	return out
}

// Receive adds qty to the item's stock.
func (l *Ledger) Receive(id int64, qty int) (domain.Item, error) {
	if qty <= 0 {
		return domain.Item{}, invalidQty(qty)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[id]
	if !ok {
		return domain.Item{}, notFound(id)
	}
	if qty > math.MaxInt-it.Qty {
		return domain.Item{}, fmt.Errorf("receive %d of item %d with %d on hand overflows: %w",
			qty, id, it.Qty, domain.ErrInvalidQuantity)
	}
	it.Qty += qty
	return it.Clone(), nil
}

// Issue removes qty from the item's stock. Over-issuing clamps the quantity to zero
// unless the ledger is strict, in which case it fails and leaves stock unchanged.
func (l *Ledger) Issue(id int64, qty int) (domain.Item, error) {
	if qty <= 0 {
		return domain.Item{}, invalidQty(qty)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[id]
	if !ok {
		return domain.Item{}, notFound(id)
	}
	if l.strict && qty > it.Qty {
		return domain.Item{}, fmt.Errorf("issue %d of item %d with %d on hand: %w",
			qty, id, it.Qty, domain.ErrInsufficientStock)
	}
	it.Qty = max(0, it.Qty-qty)
	return it.Clone(), nil
}

// Consume issues every line as one unit: either all lines are applied or none are.
// Lines for the same item are summed before checking availability. The returned items
// follow the order in which each item first appears.
func (l *Ledger) Consume(lines []domain.StockLine) ([]domain.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	demand := make(map[int64]int, len(lines))
	var order []int64
	for _, line := range lines {
		if line.Qty <= 0 {
			return nil, invalidQty(line.Qty)
		}
		if _, ok := l.items[line.ItemID]; !ok {
			return nil, notFound(line.ItemID)
		}
		if _, seen := demand[line.ItemID]; !seen {
			order = append(order, line.ItemID)
		}
		demand[line.ItemID] += line.Qty
	}
	for _, id := range order {
		if it := l.items[id]; it.Qty < demand[id] {
			return nil, fmt.Errorf("item %d needs %d, has %d: %w",
				id, demand[id], it.Qty, domain.ErrInsufficientStock)
		}
	}

	out := make([]domain.Item, 0, len(order))
	for _, id := range order {
		it := l.items[id]
		it.Qty -= demand[id]
		out = append(out, it.Clone())
	}
	return out, nil
}

// EditMetadata applies a patch to an item's descriptive fields. The patch is validated
// in full before anything changes.
func (l *Ledger) EditMetadata(id int64, patch domain.ItemPatch) (domain.Item, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return domain.Item{}, fmt.Errorf("%w: name must not be blank", domain.ErrInvalidArgument)
	}
	if patch.ReorderLevel != nil && *patch.ReorderLevel < 0 {
		return domain.Item{}, fmt.Errorf("%w: reorder level %d", domain.ErrInvalidQuantity, *patch.ReorderLevel)
	}
	if patch.ExpiryDays != nil && *patch.ExpiryDays <= 0 {
		return domain.Item{}, fmt.Errorf("%w: expiry days %d", domain.ErrInvalidQuantity, *patch.ExpiryDays)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[id]
	if !ok {
		return domain.Item{}, notFound(id)
	}
	if patch.Name != nil {
		it.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.ReorderLevel != nil {
		it.ReorderLevel = *patch.ReorderLevel
	}
	switch {
	case patch.ClearExpiry:
		it.ExpiryDays = nil
	case patch.ExpiryDays != nil:
		days := *patch.ExpiryDays
		it.ExpiryDays = &days
	}
	if patch.Location != nil {
		it.Location = *patch.Location
	}
	return it.Clone(), nil
}

// StockStatus classifies an item from its current fields.
func StockStatus(item domain.Item) domain.StockStatus {
	return item.Status()
}

func notFound(id int64) error {
	return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
}

func invalidQty(qty int) error {
	return fmt.Errorf("%w: %d must be positive", domain.ErrInvalidQuantity, qty)
}
