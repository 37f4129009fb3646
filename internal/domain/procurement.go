package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProcurementStatus is the approval state of a procurement request.
type ProcurementStatus string

const (
	ProcurementPending  ProcurementStatus = "PENDING"
	ProcurementApproved ProcurementStatus = "APPROVED"
	ProcurementRejected ProcurementStatus = "REJECTED"
)

// ProcurementRequest records a desired restock awaiting, or past, approval.
// ApprovedBy and ApprovedAt are set exactly when Status is not PENDING.
type ProcurementRequest struct {
	ID           int64             `json:"id"`
	ItemID       int64             `json:"item_id"`
	QtyRequested int               `json:"qty_requested"`
	Status       ProcurementStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	RequestedBy  string            `json:"requested_by,omitempty"`
	ApprovedBy   *string           `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time        `json:"approved_at,omitempty"`
}

// Clone returns a copy that shares no pointers with the receiver.
func (p ProcurementRequest) Clone() ProcurementRequest {
	if p.ApprovedBy != nil {
		by := *p.ApprovedBy
		p.ApprovedBy = &by
	}
	if p.ApprovedAt != nil {
		at := *p.ApprovedAt
		p.ApprovedAt = &at
	}
	return p
}

// ProcurementView decorates a request with the item it refers to.
type ProcurementView struct {
	ProcurementRequest
	ItemName string `json:"item_name"`
	ItemCode string `json:"item_code"`
}

// Filter selects procurement requests by status.
type Filter string

const (
	FilterAll      Filter = "ALL"
	FilterPending  Filter = Filter(ProcurementPending)
	FilterApproved Filter = Filter(ProcurementApproved)
	FilterRejected Filter = Filter(ProcurementRejected)
)

// ParseFilter accepts the filter names case-insensitively; an empty string means ALL.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToUpper(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPending, FilterApproved, FilterRejected:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown procurement filter %q", ErrInvalidArgument, s)
	}
}

// Matches reports whether a request passes the filter.
func (f Filter) Matches(p ProcurementRequest) bool {
	return f == FilterAll || ProcurementStatus(f) == p.Status
}

// ProcurementCounts tallies requests by status.
type ProcurementCounts struct {
	All      int `json:"all"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
