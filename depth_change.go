package limitbook

import "github.com/shopspring/decimal"

// DepthChange represents a change in the aggregated depth of one side:
// SizeDiff is positive when liquidity is added at Price and negative when it
// is removed.
type DepthChange struct {
	Side     Side
	Price    decimal.Decimal
	SizeDiff int64
}

// CalculateDepthChange maps a book event to the depth change it implies.
// Note: for EventMatch, the side returned is the maker's side (opposite of
// the event's side), since a match consumes resting liquidity.
func CalculateDepthChange(ev *BookEvent) DepthChange {
	switch ev.Type {
	case EventOpen:
		return DepthChange{
			Side:     ev.Side,
			Price:    ev.Price,
			SizeDiff: int64(ev.Size),
		}
	case EventCancel:
		return DepthChange{
			Side:     ev.Side,
			Price:    ev.Price,
			SizeDiff: -int64(ev.Size),
		}
	case EventMatch:
		return DepthChange{
			Side:     ev.Side.Opposite(),
			Price:    ev.Price,
			SizeDiff: -int64(ev.Size),
		}
	}

	return DepthChange{}
}
