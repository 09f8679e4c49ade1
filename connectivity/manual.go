package connectivity

import (
	"context"
	"sync"
)

// Manual is a Monitor whose state is set explicitly by the embedding
// application (or by tests). Hosts with a platform connectivity callback
// forward it into Set.
type Manual struct {
	mu   sync.Mutex
	kind Kind

	nextID int
	subs   map[int]chan Change
}

// NewManual returns a Manual monitor starting in the given state.
func NewManual(kind Kind) *Manual {
	return &Manual{kind: kind, subs: make(map[int]chan Change)}
}

func (m *Manual) IsConnected(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kind != KindNone
}

func (m *Manual) CurrentKind(_ context.Context) Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kind
}

// Set updates the current network kind and notifies subscribers if the
// kind actually changed. Publishing happens under the mutex so a
// concurrent cancel cannot close a channel mid-send.
func (m *Manual) Set(kind Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.kind == kind {
		return
	}
	m.kind = kind
	change := Change{Online: kind != KindNone, Kind: kind}
	for _, ch := range m.subs {
		select {
		case ch <- change:
		default: // slow subscriber, drop
		}
	}
}

func (m *Manual) Subscribe() (<-chan Change, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan Change, 8)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
