package order

import (
	"context"
	"fmt"
	"sync"

	"github.com/tidwall/btree"

	"github.com/go-foreman/ordersaga/saga"
)

// NewMemoryStore keeps envelopes in a btree ordered by creation time
func NewMemoryStore() Store {
	return &memoryStore{
		orders: make(map[string]saga.Order),
		events: btree.NewMap[string, *saga.Event](16),
		keys:   make(map[string]string),
	}
}

type memoryStore struct {
	mutex  sync.RWMutex
	orders map[string]saga.Order
	events *btree.Map[string, *saga.Event]
	// event id -> events key
	keys map[string]string
}

func (m *memoryStore) SaveOrder(ctx context.Context, order saga.Order) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.orders[order.ID] = order

	return nil
}

func (m *memoryStore) SaveEvent(ctx context.Context, ev *saga.Event) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := eventKey(ev)

	if prev, exists := m.keys[ev.ID]; exists && prev != key {
		m.events.Delete(prev)
	}

	m.keys[ev.ID] = key
	m.events.Set(key, ev.Clone())

	return nil
}

func (m *memoryStore) FindEvents(ctx context.Context) ([]*saga.Event, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	events := make([]*saga.Event, 0, m.events.Len())

	m.events.Reverse(func(_ string, ev *saga.Event) bool {
		events = append(events, ev.Clone())
		return true
	})

	return events, nil
}

func (m *memoryStore) LastEventByOrderID(ctx context.Context, orderID string) (*saga.Event, bool, error) {
	ev, found := m.last(func(ev *saga.Event) bool { return ev.OrderID == orderID })
	return ev, found, nil
}

func (m *memoryStore) LastEventByTransactionID(ctx context.Context, transactionID string) (*saga.Event, bool, error) {
	ev, found := m.last(func(ev *saga.Event) bool { return ev.TransactionID == transactionID })
	return ev, found, nil
}

func (m *memoryStore) last(match func(ev *saga.Event) bool) (*saga.Event, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var found *saga.Event

	m.events.Reverse(func(_ string, ev *saga.Event) bool {
		if match(ev) {
			found = ev.Clone()
			return false
		}
		return true
	})

	return found, found != nil
}

func eventKey(ev *saga.Event) string {
	return fmt.Sprintf("%020d|%s", ev.CreatedAt.UnixNano(), ev.ID)
}
