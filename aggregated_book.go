package limitbook

import (
	"github.com/igrmk/treemap/v2"
	"github.com/shopspring/decimal"
)

// AggregatedBook maintains a simplified view of the order book, tracking
// only price levels and their aggregated sizes. It is designed for
// downstream consumers that rebuild depth from the book's event stream
// (e.g. a market-data feed) without holding the book's lock.
//
// AggregatedBook is not safe for concurrent use; callers apply events from
// a single consumer goroutine.
type AggregatedBook struct {
	seqID uint64
	bid   *treemap.TreeMap[decimal.Decimal, uint64]
	ask   *treemap.TreeMap[decimal.Decimal, uint64]
}

// NewAggregatedBook creates an empty AggregatedBook. Both sides iterate
// best price first: bids compare descending, asks ascending.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		bid: treemap.NewWithKeyCompare[decimal.Decimal, uint64](func(a, b decimal.Decimal) bool {
			return a.GreaterThan(b)
		}),
		ask: treemap.NewWithKeyCompare[decimal.Decimal, uint64](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
	}
}

// SequenceID returns the last applied event sequence ID.
func (ab *AggregatedBook) SequenceID() uint64 {
	return ab.seqID
}

// Rebuild resets the view from a full book snapshot. Call this before
// replaying events that were produced after the snapshot was taken.
func (ab *AggregatedBook) Rebuild(snap *BookSnapshot) {
	fresh := NewAggregatedBook()

	for i := range snap.Bids {
		ord := &snap.Bids[i]
		size, _ := fresh.bid.Get(ord.Price)
		fresh.bid.Set(ord.Price, size+ord.Size)
	}
	for i := range snap.Asks {
		ord := &snap.Asks[i]
		size, _ := fresh.ask.Get(ord.Price)
		fresh.ask.Set(ord.Price, size+ord.Size)
	}

	ab.bid = fresh.bid
	ab.ask = fresh.ask
	ab.seqID = snap.SequenceID
}

// Apply replays one book event. Events at or below the current sequence ID
// are duplicates and are skipped; a jump of more than one ahead means the
// stream lost an event and returns ErrSequenceGap without mutating state.
func (ab *AggregatedBook) Apply(ev *BookEvent) error {
	if ev.SequenceID <= ab.seqID {
		return nil
	}
	if ab.seqID != 0 && ev.SequenceID != ab.seqID+1 {
		return ErrSequenceGap
	}

	change := CalculateDepthChange(ev)
	if change.SizeDiff != 0 {
		side := ab.ask
		if change.Side == Buy {
			side = ab.bid
		}

		size, _ := side.Get(change.Price)
		next := int64(size) + change.SizeDiff
		if next < 0 {
			return ErrDepthUnderflow
		}
		if next == 0 {
			side.Del(change.Price)
		} else {
			side.Set(change.Price, uint64(next))
		}
	}

	ab.seqID = ev.SequenceID
	return nil
}

// Depth returns the aggregated size at a specific price level for the given
// side, or zero if the level does not exist.
func (ab *AggregatedBook) Depth(side Side, price decimal.Decimal) uint64 {
	tree := ab.ask
	if side == Buy {
		tree = ab.bid
	}

	size, _ := tree.Get(price)
	return size
}

// TopLevels returns up to limit aggregated levels for the given side, best
// price first.
func (ab *AggregatedBook) TopLevels(side Side, limit int) []*DepthItem {
	tree := ab.ask
	if side == Buy {
		tree = ab.bid
	}

	result := make([]*DepthItem, 0, limit)
	for it := tree.Iterator(); it.Valid() && len(result) < limit; it.Next() {
		result = append(result, &DepthItem{
			Price: it.Key(),
			Size:  it.Value(),
		})
	}

	return result
}
