package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a committed state change.
type EventType string

const (
	EventStockReceived        EventType = "stock.received"
	EventStockIssued          EventType = "stock.issued"
	EventItemUpdated          EventType = "item.updated"
	EventRecipeSold           EventType = "recipe.sold"
	EventProcurementSubmitted EventType = "procurement.submitted"
	EventProcurementApproved  EventType = "procurement.approved"
	EventProcurementRejected  EventType = "procurement.rejected"
	EventProcurementRemoved   EventType = "procurement.removed"
)

// Event is published after a command commits so adapters can re-render.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Key        string    `json:"key"`
	Payload    any       `json:"payload"`
}

// NewEvent stamps a fresh event id.
func NewEvent(t EventType, key string, payload any, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: at.UTC(),
		Key:        key,
		Payload:    payload,
	}
}

// GoodsReceivedEvent is consumed from the goods receipt topic. Either ItemID or ItemCode
// identifies the item.
type GoodsReceivedEvent struct {
	ItemID   int64  `json:"item_id,omitempty"`
	ItemCode string `json:"item_code,omitempty"`
	Qty      int    `json:"qty"`
}
