package limitbook

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// EventType represents the type of book event.
type EventType string

const (
	EventOpen   EventType = "open"
	EventMatch  EventType = "match"
	EventCancel EventType = "cancel"
)

// BookEvent describes one state change of the order book. SequenceID is a
// gap-free increasing ID assigned inside the book's critical section, used
// for ordering and rebuild synchronization in downstream consumers.
// For EventMatch, Side is the taker's side, Price and Size are the executed
// price (the maker's) and quantity, and MakerOrderID identifies the resting
// order that was hit.
type BookEvent struct {
	SequenceID   uint64          `json:"seq_id"`
	Type         EventType       `json:"type"`
	Side         Side            `json:"side"`
	Price        decimal.Decimal `json:"price"`
	Size         uint64          `json:"size"`
	OrderID      uint64          `json:"order_id"`
	ClientID     string          `json:"client_id"`
	MakerOrderID uint64          `json:"maker_order_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

var bookEventPool = sync.Pool{
	New: func() any {
		return new(BookEvent)
	},
}

func acquireBookEvent() *BookEvent {
	return bookEventPool.Get().(*BookEvent)
}

func releaseBookEvent(ev *BookEvent) {
	*ev = BookEvent{}
	bookEventPool.Put(ev)
}

// EventPublisher consumes book events.
//
// IMPORTANT: Implementations must either:
//  1. Process events synchronously before returning, OR
//  2. Clone the BookEvent data before returning
//
// The book recycles BookEvent objects to a sync.Pool after Publish returns,
// so any asynchronous processing must work with cloned data.
type EventPublisher interface {
	Publish(...*BookEvent)
}

// MemoryEventPublisher stores events in memory, useful for testing.
type MemoryEventPublisher struct {
	mu     sync.RWMutex
	events []*BookEvent
}

// NewMemoryEventPublisher creates a new MemoryEventPublisher.
func NewMemoryEventPublisher() *MemoryEventPublisher {
	return &MemoryEventPublisher{
		events: make([]*BookEvent, 0),
	}
}

// Publish appends cloned events to the in-memory slice.
func (m *MemoryEventPublisher) Publish(events ...*BookEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range events {
		cpy := new(BookEvent)
		*cpy = *ev
		m.events = append(m.events, cpy)
	}
}

// Count returns the number of events stored.
func (m *MemoryEventPublisher) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Get returns the event at the specified index.
func (m *MemoryEventPublisher) Get(index int) *BookEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.events[index]
}

// Events returns a copy of all events stored.
func (m *MemoryEventPublisher) Events() []*BookEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]*BookEvent, len(m.events))
	copy(events, m.events)
	return events
}

// DiscardEventPublisher drops all events, useful when no downstream consumer
// is wired and for benchmarking.
type DiscardEventPublisher struct{}

// NewDiscardEventPublisher creates a new DiscardEventPublisher.
func NewDiscardEventPublisher() *DiscardEventPublisher {
	return &DiscardEventPublisher{}
}

// Publish does nothing.
func (p *DiscardEventPublisher) Publish(events ...*BookEvent) {}
