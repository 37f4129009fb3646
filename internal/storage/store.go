// Package storage persists the committed state of the core components so it survives
// restarts. The core stays the source of truth while the process runs.
package storage

import (
	"context"

	"github.com/annalza/mint-stock-flow/internal/catalog"
	"github.com/annalza/mint-stock-flow/internal/domain"
)

// Store is the write-through target of committed commands.
type Store interface {
	Load(ctx context.Context) (catalog.Snapshot, error)
	Seed(ctx context.Context, snapshot catalog.Snapshot) error
	SaveItems(ctx context.Context, items ...domain.Item) error
	SaveProcurement(ctx context.Context, request domain.ProcurementRequest) error
	DeleteProcurement(ctx context.Context, id int64) error
	Close() error
}
