package limitbook

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// OrderBook is a single-instrument limit order book with price-time
// priority. All mutating operations and all consistency-sensitive reads run
// under one coarse mutex: matching is fast relative to network I/O, and a
// partial interleaving of matching steps would break the priority and index
// invariants, so there is nothing to gain from finer locking.
//
// Order IDs are assigned by the book itself, monotonically, never by the
// client. Executed trades are handed to the injected TradeRecorder before
// PlaceOrder returns, in execution order; book state changes are additionally
// published to the injected EventPublisher with a gap-free sequence ID.
type OrderBook struct {
	mu       sync.Mutex
	nextID   uint64
	seqID    uint64
	bidQueue *queue
	askQueue *queue
	recorder TradeRecorder
	events   EventPublisher
}

// NewOrderBook creates a new order book. recorder must not be nil; a nil
// publisher discards events.
func NewOrderBook(recorder TradeRecorder, publisher EventPublisher) *OrderBook {
	if publisher == nil {
		publisher = NewDiscardEventPublisher()
	}
	return &OrderBook{
		bidQueue: newBidQueue(),
		askQueue: newAskQueue(),
		recorder: recorder,
		events:   publisher,
	}
}

// PlaceOrder admits a limit order, matches it against resting liquidity on
// the opposite side, and rests any remainder. It returns the assigned order
// ID and the trades generated by this placement in the order they occurred.
//
// A zero size, negative price, or unknown side is rejected with
// ErrInvalidParam before any state changes. A trade-log append failure is
// returned as an error, but the matching that already happened is not rolled
// back: the trades stand, only their durable record failed.
func (book *OrderBook) PlaceOrder(cmd *PlaceOrderCommand) (uint64, []*Trade, error) {
	if cmd == nil {
		return 0, nil, fmt.Errorf("%w: nil command", ErrInvalidParam)
	}
	if cmd.Side != Buy && cmd.Side != Sell {
		return 0, nil, fmt.Errorf("%w: unknown side %d", ErrInvalidParam, cmd.Side)
	}
	if cmd.Size == 0 {
		return 0, nil, fmt.Errorf("%w: size must be positive", ErrInvalidParam)
	}
	if cmd.Price.IsNegative() {
		return 0, nil, fmt.Errorf("%w: price must not be negative", ErrInvalidParam)
	}

	book.mu.Lock()
	defer book.mu.Unlock()

	book.nextID++
	order := &Order{
		ID:           book.nextID,
		ClientID:     cmd.ClientID,
		Side:         cmd.Side,
		Price:        cmd.Price,
		Size:         cmd.Size,
		OriginalSize: cmd.Size,
		Timestamp:    time.Now().UnixNano(),
	}

	trades, events := book.matchLimit(order)

	if order.Size > 0 {
		myQueue := book.askQueue
		if order.Side == Buy {
			myQueue = book.bidQueue
		}
		myQueue.insertOrder(order)
		events = append(events, book.newOpenEvent(order))
	}

	book.publish(events)

	if len(trades) > 0 {
		if err := book.recorder.Record(trades...); err != nil {
			return order.ID, trades, fmt.Errorf("trade log append: %w", err)
		}
	}

	return order.ID, trades, nil
}

// matchLimit crosses the incoming order against the best opposing levels
// until it is exhausted, the opposite side is empty, or the price no longer
// crosses. The crossing condition is inclusive: an order priced exactly at
// the best opposing price matches. Trades always execute at the resting
// order's price.
func (book *OrderBook) matchLimit(order *Order) ([]*Trade, []*BookEvent) {
	targetQueue := book.bidQueue
	if order.Side == Buy {
		targetQueue = book.askQueue
	}

	var trades []*Trade
	var events []*BookEvent
	now := time.Now().UTC()

	for order.Size > 0 {
		tOrd := targetQueue.peekHeadOrder()
		if tOrd == nil {
			break
		}

		if order.Side == Buy && order.Price.LessThan(tOrd.Price) ||
			order.Side == Sell && order.Price.GreaterThan(tOrd.Price) {
			break
		}

		filled := order.Size
		if tOrd.Size < filled {
			filled = tOrd.Size
		}

		trade := &Trade{
			Price:     tOrd.Price,
			Size:      filled,
			CreatedAt: now,
		}
		if order.Side == Buy {
			trade.BuyOrderID = order.ID
			trade.SellOrderID = tOrd.ID
		} else {
			trade.BuyOrderID = tOrd.ID
			trade.SellOrderID = order.ID
		}
		trades = append(trades, trade)
		events = append(events, book.newMatchEvent(order, tOrd, filled))

		order.Size -= filled
		if filled == tOrd.Size {
			// Maker fully consumed: unlink it and purge the index entry.
			targetQueue.removeOrder(tOrd)
		} else {
			// Partial fill: decrement in place so the maker keeps its
			// position at the head of the level.
			targetQueue.reduceOrder(tOrd, filled)
		}
	}

	return trades, events
}

// CancelOrder removes a resting order. It returns true if the order was
// found and removed, false if the ID is unknown or the order has already
// been fully filled or cancelled.
func (book *OrderBook) CancelOrder(id uint64) bool {
	book.mu.Lock()
	defer book.mu.Unlock()

	order := book.askQueue.order(id)
	if order != nil {
		book.askQueue.removeOrder(order)
		book.publish([]*BookEvent{book.newCancelEvent(order)})
		return true
	}

	order = book.bidQueue.order(id)
	if order != nil {
		book.bidQueue.removeOrder(order)
		book.publish([]*BookEvent{book.newCancelEvent(order)})
		return true
	}

	return false
}

// BestBid returns the highest resting bid price, if any.
func (book *OrderBook) BestBid() (decimal.Decimal, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.bidQueue.bestPrice()
}

// BestAsk returns the lowest resting ask price, if any.
func (book *OrderBook) BestAsk() (decimal.Decimal, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.askQueue.bestPrice()
}

// Depth returns one consistent view of up to limit aggregated price levels
// per side, best first.
func (book *OrderBook) Depth(limit uint32) (*Depth, error) {
	if limit == 0 {
		return nil, fmt.Errorf("%w: depth limit must be positive", ErrInvalidParam)
	}

	book.mu.Lock()
	defer book.mu.Unlock()

	return &Depth{
		UpdateID: book.seqID,
		Bids:     book.bidQueue.depth(limit),
		Asks:     book.askQueue.depth(limit),
	}, nil
}

// Stats returns usage statistics for both sides of the book.
func (book *OrderBook) Stats() *BookStats {
	book.mu.Lock()
	defer book.mu.Unlock()

	return &BookStats{
		AskDepthCount: book.askQueue.depthCount(),
		AskOrderCount: book.askQueue.orderCount(),
		BidDepthCount: book.bidQueue.depthCount(),
		BidOrderCount: book.bidQueue.orderCount(),
	}
}

// TakeSnapshot captures the full resting state of the book.
func (book *OrderBook) TakeSnapshot() *BookSnapshot {
	book.mu.Lock()
	defer book.mu.Unlock()

	return &BookSnapshot{
		SequenceID:  book.seqID,
		NextOrderID: book.nextID,
		Bids:        book.bidQueue.toSnapshot(),
		Asks:        book.askQueue.toSnapshot(),
	}
}

// Restore discards the current book state and rebuilds it from a snapshot.
// Snapshot slices are ordered best-first and FIFO within a level, so plain
// insertion reproduces the original priority.
func (book *OrderBook) Restore(snap *BookSnapshot) {
	book.mu.Lock()
	defer book.mu.Unlock()

	book.seqID = snap.SequenceID
	book.nextID = snap.NextOrderID
	book.bidQueue = newBidQueue()
	book.askQueue = newAskQueue()

	for i := range snap.Bids {
		ord := snap.Bids[i]
		book.bidQueue.insertOrder(&ord)
	}
	for i := range snap.Asks {
		ord := snap.Asks[i]
		book.askQueue.insertOrder(&ord)
	}
}

// publish hands events to the publisher and recycles them. Called with the
// book lock held so downstream consumers observe events in sequence order.
func (book *OrderBook) publish(events []*BookEvent) {
	if len(events) == 0 {
		return
	}
	book.events.Publish(events...)
	for _, ev := range events {
		releaseBookEvent(ev)
	}
}

func (book *OrderBook) newOpenEvent(order *Order) *BookEvent {
	book.seqID++
	ev := acquireBookEvent()
	ev.SequenceID = book.seqID
	ev.Type = EventOpen
	ev.Side = order.Side
	ev.Price = order.Price
	ev.Size = order.Size
	ev.OrderID = order.ID
	ev.ClientID = order.ClientID
	ev.CreatedAt = time.Now().UTC()
	return ev
}

func (book *OrderBook) newMatchEvent(taker, maker *Order, filled uint64) *BookEvent {
	book.seqID++
	ev := acquireBookEvent()
	ev.SequenceID = book.seqID
	ev.Type = EventMatch
	ev.Side = taker.Side
	ev.Price = maker.Price
	ev.Size = filled
	ev.OrderID = taker.ID
	ev.ClientID = taker.ClientID
	ev.MakerOrderID = maker.ID
	ev.CreatedAt = time.Now().UTC()
	return ev
}

func (book *OrderBook) newCancelEvent(order *Order) *BookEvent {
	book.seqID++
	ev := acquireBookEvent()
	ev.SequenceID = book.seqID
	ev.Type = EventCancel
	ev.Side = order.Side
	ev.Price = order.Price
	ev.Size = order.Size
	ev.OrderID = order.ID
	ev.ClientID = order.ClientID
	ev.CreatedAt = time.Now().UTC()
	return ev
}
