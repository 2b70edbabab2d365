package limitbook

import "sync"

// TradeRecorder is the capability the book uses to persist executed trades.
// Record is called synchronously, in execution order, before PlaceOrder
// returns; an error from Record is surfaced to the caller but never rolls
// back the matching that already happened.
type TradeRecorder interface {
	Record(...*Trade) error
}

// MemoryTradeRecorder stores trades in memory, useful for testing.
type MemoryTradeRecorder struct {
	mu     sync.RWMutex
	trades []*Trade
}

// NewMemoryTradeRecorder creates a new MemoryTradeRecorder.
func NewMemoryTradeRecorder() *MemoryTradeRecorder {
	return &MemoryTradeRecorder{
		trades: make([]*Trade, 0),
	}
}

// Record appends trades to the in-memory slice.
func (m *MemoryTradeRecorder) Record(trades ...*Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, trades...)
	return nil
}

// Count returns the number of trades recorded.
func (m *MemoryTradeRecorder) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trades)
}

// Get returns the trade at the specified index.
func (m *MemoryTradeRecorder) Get(index int) *Trade {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trades[index]
}

// Trades returns a copy of all recorded trades.
func (m *MemoryTradeRecorder) Trades() []*Trade {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trades := make([]*Trade, len(m.trades))
	copy(trades, m.trades)
	return trades
}

// DiscardTradeRecorder drops all trades, useful for benchmarking.
type DiscardTradeRecorder struct{}

// NewDiscardTradeRecorder creates a new DiscardTradeRecorder.
func NewDiscardTradeRecorder() *DiscardTradeRecorder {
	return &DiscardTradeRecorder{}
}

// Record does nothing.
func (d *DiscardTradeRecorder) Record(trades ...*Trade) error {
	return nil
}
