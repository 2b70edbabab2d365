package limitbook

import (
	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// priceLevel is one exact price on one side of the book: an intrusive FIFO
// of resting orders (head is the oldest and fills first) plus the aggregate
// size used for depth reporting.
type priceLevel struct {
	price     decimal.Decimal
	totalSize uint64
	head      *Order
	tail      *Order
	count     int64
}

// priceKey returns the canonical map key for a price. decimal.String trims
// trailing zeros, so equal values always produce the same key regardless of
// how the caller constructed the decimal.
func priceKey(price decimal.Decimal) string {
	return price.String()
}

// queue is one side of the ladder. The skiplist orders price levels
// best-first (highest bid / lowest ask), levels gives O(1) access to a
// level by price, and orders gives O(1) access to a resting order by ID for
// cancellation. The three structures are mutated together; any divergence
// between them is a programming error and panics.
type queue struct {
	side        Side
	totalOrders int64
	depths      int64
	depthList   *skiplist.SkipList
	levels      map[string]*skiplist.Element
	orders      map[uint64]*Order
}

// newBidQueue creates the queue for buy orders, sorted so the highest price
// is at the front.
func newBidQueue() *queue {
	return &queue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			d1, _ := lhs.(decimal.Decimal)
			d2, _ := rhs.(decimal.Decimal)
			return d2.Cmp(d1)
		})),
		levels: make(map[string]*skiplist.Element),
		orders: make(map[uint64]*Order),
	}
}

// newAskQueue creates the queue for sell orders, sorted so the lowest price
// is at the front.
func newAskQueue() *queue {
	return &queue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			d1, _ := lhs.(decimal.Decimal)
			d2, _ := rhs.(decimal.Decimal)
			return d1.Cmp(d2)
		})),
		levels: make(map[string]*skiplist.Element),
		orders: make(map[uint64]*Order),
	}
}

// order finds a resting order by its ID.
func (q *queue) order(id uint64) *Order {
	return q.orders[id]
}

// insertOrder appends an order to the tail of its price level, creating the
// level if it does not exist yet. Appending at the tail is what gives
// price-time priority: earlier admissions always sit closer to the head.
func (q *queue) insertOrder(order *Order) {
	el, ok := q.levels[priceKey(order.Price)]
	if ok {
		unit, _ := el.Value.(*priceLevel)
		order.prev = unit.tail
		order.next = nil
		if unit.tail != nil {
			unit.tail.next = order
		}
		unit.tail = order
		if unit.head == nil {
			unit.head = order
		}
		unit.totalSize += order.Size
		unit.count++
	} else {
		unit := &priceLevel{
			price:     order.Price,
			head:      order,
			tail:      order,
			totalSize: order.Size,
			count:     1,
		}
		order.next = nil
		order.prev = nil

		el := q.depthList.Set(order.Price, unit)
		q.levels[priceKey(order.Price)] = el
		q.depths++
	}

	q.orders[order.ID] = order
	q.totalOrders++
}

// removeOrder unlinks an order from its price level and drops the level when
// it becomes empty. The order must currently rest in this queue.
func (q *queue) removeOrder(order *Order) {
	if _, ok := q.orders[order.ID]; !ok {
		panic("limitbook: removeOrder on an order missing from the index")
	}

	el, ok := q.levels[priceKey(order.Price)]
	if !ok {
		panic("limitbook: order index references a missing price level")
	}
	unit, _ := el.Value.(*priceLevel)

	if order.prev != nil {
		order.prev.next = order.next
	} else {
		unit.head = order.next
	}
	if order.next != nil {
		order.next.prev = order.prev
	} else {
		unit.tail = order.prev
	}

	// Clear pointers so a removed order never aliases the list.
	order.next = nil
	order.prev = nil

	if unit.totalSize < order.Size {
		panic("limitbook: price level size underflow")
	}
	unit.totalSize -= order.Size
	unit.count--
	delete(q.orders, order.ID)
	q.totalOrders--

	if unit.count == 0 {
		q.depthList.RemoveElement(el)
		delete(q.levels, priceKey(order.Price))
		q.depths--
	}
}

// reduceOrder decrements an order's remaining size in place after a partial
// fill. The order keeps its position in the level, so FIFO priority is
// preserved. filled must be strictly less than the remaining size; a full
// fill goes through removeOrder instead.
func (q *queue) reduceOrder(order *Order, filled uint64) {
	if filled == 0 || filled >= order.Size {
		panic("limitbook: reduceOrder with a non-partial fill")
	}

	el, ok := q.levels[priceKey(order.Price)]
	if !ok {
		panic("limitbook: order index references a missing price level")
	}
	unit, _ := el.Value.(*priceLevel)

	unit.totalSize -= filled
	order.Size -= filled
}

// peekHeadOrder returns the oldest order at the best price without removing
// it, or nil when the side is empty.
func (q *queue) peekHeadOrder() *Order {
	el := q.depthList.Front()
	if el == nil {
		return nil
	}

	unit, _ := el.Value.(*priceLevel)
	return unit.head
}

// bestPrice returns the best resting price on this side.
func (q *queue) bestPrice() (decimal.Decimal, bool) {
	el := q.depthList.Front()
	if el == nil {
		return decimal.Decimal{}, false
	}

	unit, _ := el.Value.(*priceLevel)
	return unit.price, true
}

// orderCount returns the total number of resting orders on this side.
func (q *queue) orderCount() int64 {
	return q.totalOrders
}

// depthCount returns the number of price levels on this side.
func (q *queue) depthCount() int64 {
	return q.depths
}

// depth returns up to limit aggregated price levels, best first.
func (q *queue) depth(limit uint32) []*DepthItem {
	result := make([]*DepthItem, 0, limit)

	el := q.depthList.Front()

	var i uint32
	for i < limit && el != nil {
		unit, _ := el.Value.(*priceLevel)
		result = append(result, &DepthItem{
			Price: unit.price,
			Size:  unit.totalSize,
			Count: unit.count,
		})

		el = el.Next()
		i++
	}

	return result
}

// toSnapshot serializes this side into a flat slice of orders, iterating
// levels best-first and orders FIFO within each level so priority survives
// a snapshot/restore round trip.
func (q *queue) toSnapshot() []Order {
	snapshots := make([]Order, 0, q.totalOrders)

	el := q.depthList.Front()
	for el != nil {
		unit, _ := el.Value.(*priceLevel)

		order := unit.head
		for order != nil {
			snapshots = append(snapshots, Order{
				ID:           order.ID,
				ClientID:     order.ClientID,
				Side:         order.Side,
				Price:        order.Price,
				Size:         order.Size,
				OriginalSize: order.OriginalSize,
				Timestamp:    order.Timestamp,
			})
			order = order.next
		}

		el = el.Next()
	}

	return snapshots
}
