package limitbook

import "github.com/shopspring/decimal"

// DepthItem is one aggregated price level in a depth view.
type DepthItem struct {
	Price decimal.Decimal `json:"price"`
	Size  uint64          `json:"size"`
	Count int64           `json:"count"`
}

// Depth is a point-in-time view of the top of the book, up to the requested
// number of levels per side, best price first. UpdateID is the event
// sequence ID at the moment the view was taken.
type Depth struct {
	UpdateID uint64       `json:"update_id"`
	Bids     []*DepthItem `json:"bids"`
	Asks     []*DepthItem `json:"asks"`
}

// BookStats contains usage statistics for the order book.
type BookStats struct {
	AskDepthCount int64
	AskOrderCount int64
	BidDepthCount int64
	BidOrderCount int64
}

// BookSnapshot contains the full resting state of the book. Bids and Asks
// are ordered best price first and FIFO within a level, so feeding them back
// through Restore reproduces the exact priority order.
type BookSnapshot struct {
	SequenceID  uint64  `json:"sequence_id"`
	NextOrderID uint64  `json:"next_order_id"`
	Bids        []Order `json:"bids"`
	Asks        []Order `json:"asks"`
}
