package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/annalza/mint-stock-flow/internal/catalog"
	"github.com/annalza/mint-stock-flow/internal/domain"
)

// Memory keeps the snapshot in process. Removed procurement requests still count
// toward the id high-water mark. It backs tests and runs without DATABASE_URL.
type Memory struct {
	mu           sync.Mutex
	items        map[int64]domain.Item
	recipes      map[int64]domain.Recipe
	procurements map[int64]domain.ProcurementRequest
	lastProcID   int64
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		items:        make(map[int64]domain.Item),
		recipes:      make(map[int64]domain.Recipe),
		procurements: make(map[int64]domain.ProcurementRequest),
	}
}

func sortedValues[V any](m map[int64]V, clone func(V) V) []V {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, clone(m[k]))
	}
	return out
}

func (m *Memory) Load(context.Context) (catalog.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return catalog.Snapshot{
		Items:             sortedValues(m.items, domain.Item.Clone),
		Recipes:           sortedValues(m.recipes, domain.Recipe.Clone),
		Procurements:      sortedValues(m.procurements, domain.ProcurementRequest.Clone),
		LastProcurementID: m.lastProcID,
	}, nil
}

func (m *Memory) Seed(_ context.Context, s catalog.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range s.Items {
		m.items[it.ID] = it.Clone()
	}
	for _, r := range s.Recipes {
		m.recipes[r.ID] = r.Clone()
	}
	for _, p := range s.Procurements {
		m.procurements[p.ID] = p.Clone()
		m.lastProcID = max(m.lastProcID, p.ID)
	}
	m.lastProcID = max(m.lastProcID, s.LastProcurementID)
	return nil
}

func (m *Memory) SaveItems(_ context.Context, items ...domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		m.items[it.ID] = it.Clone()
	}
	return nil
}

func (m *Memory) SaveProcurement(_ context.Context, p domain.ProcurementRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.procurements[p.ID] = p.Clone()
	m.lastProcID = max(m.lastProcID, p.ID)
	return nil
}

func (m *Memory) DeleteProcurement(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.procurements, id)
	return nil
}

func (m *Memory) Close() error { return nil }

