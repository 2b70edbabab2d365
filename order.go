package limitbook

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the order side (Buy/Sell).
type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// PlaceOrderCommand is the input for placing a limit order. The book assigns
// the order ID and the admission timestamp itself; callers only supply the
// economic terms and the owning client.
type PlaceOrderCommand struct {
	ClientID string          `json:"client_id"`
	Side     Side            `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Size     uint64          `json:"size"`
}

// Order is a resting order in the book. Size is the remaining quantity and
// is strictly positive while the order rests; OriginalSize never changes
// after admission. Timestamp is the admission time in unix nanoseconds and
// is used only for FIFO reporting, never as a sort key (position in the
// level's list is the priority).
type Order struct {
	ID           uint64          `json:"id"`
	ClientID     string          `json:"client_id"`
	Side         Side            `json:"side"`
	Price        decimal.Decimal `json:"price"`
	Size         uint64          `json:"size"`
	OriginalSize uint64          `json:"original_size"`
	Timestamp    int64           `json:"timestamp"`

	// Intrusive linked list pointers (ignored by JSON)
	next *Order
	prev *Order
}

// Trade is an immutable record of one matching event. Price is always the
// resting order's price; the incoming order receives the improvement.
type Trade struct {
	BuyOrderID  uint64          `json:"buy_order_id"`
	SellOrderID uint64          `json:"sell_order_id"`
	Price       decimal.Decimal `json:"price"`
	Size        uint64          `json:"size"`
	CreatedAt   time.Time       `json:"created_at"`
}
