package domain

// StockStatus classifies an item's quantity on hand against its reorder level.
type StockStatus string

const (
	StatusOutOfStock StockStatus = "OUT_OF_STOCK"
	StatusLowStock   StockStatus = "LOW_STOCK"
	StatusInStock    StockStatus = "IN_STOCK"
)

// Item is a stock-keeping unit tracked by the inventory ledger.
type Item struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Qty          int    `json:"qty"`
	ReorderLevel int    `json:"reorder_level"`
	ExpiryDays   *int   `json:"expiry_days"`
	Location     string `json:"location"`
}

// Status is recomputed from the current quantity on every call.
func (i Item) Status() StockStatus {
	return StockStatusOf(i.Qty, i.ReorderLevel)
}

// StockStatusOf maps a quantity and reorder level to a StockStatus.
func StockStatusOf(qty, reorderLevel int) StockStatus {
	switch {
	case qty <= 0:
		return StatusOutOfStock
	case qty <= reorderLevel:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Clone returns a copy that shares no memory with the receiver.
func (i Item) Clone() Item {
	if i.ExpiryDays != nil {
		days := *i.ExpiryDays
		i.ExpiryDays = &days
	}
	return i
}

// ItemPatch lists the metadata fields an edit may change. Nil fields are left as is.
// Quantity and code are deliberately absent.
type ItemPatch struct {
	Name         *string
	ReorderLevel *int
	ExpiryDays   *int
	ClearExpiry  bool
	Location     *string
}

// StockLine is one quantity movement against one item.
type StockLine struct {
	ItemID int64
	Qty    int
}

// ItemView is an item with its stock status resolved for display.
type ItemView struct {
	Item
	Status StockStatus `json:"status"`
}

// View resolves the item's status.
func (i Item) View() ItemView {
	return ItemView{Item: i, Status: i.Status()}
}
