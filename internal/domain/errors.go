package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced entity id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuantity is returned for non-positive quantities and negative levels.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidState is returned when a transition is attempted from a state that forbids it.
	ErrInvalidState = errors.New("invalid state")
	// ErrInsufficientStock is returned when stock cannot cover a sale or a strict issue.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidArgument covers malformed catalog or metadata input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Kind names the taxonomy entry err belongs to, or "Internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidQuantity):
		return "InvalidQuantity"
	case errors.Is(err, ErrInvalidState):
		return "InvalidState"
	case errors.Is(err, ErrInsufficientStock):
		return "InsufficientStock"
	case errors.Is(err, ErrInvalidArgument):
		return "InvalidArgument"
	default:
		return "Internal"
	}
}
