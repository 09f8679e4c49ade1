package syncer

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/newssync/models"
)

// Result is the terminal event of one sync pass.
type Result struct {
	Success bool

	// Skipped is set for soft no-ops (Wi-Fi-only policy suppressed a
	// background sync). Skipped results are not failures.
	Skipped bool

	// RecordCount is the number of records written locally.
	RecordCount int

	Duration  time.Duration
	Timestamp time.Time
	Err       error
}

// Progress is a continuous state event for UI consumption.
type Progress struct {
	Status models.SyncStatus

	// Fraction is in [0, 1].
	Fraction float64

	// Operation is a human-readable current-operation label.
	Operation string
}

// broadcaster fans events out to subscribers without blocking the
// publisher: slow subscribers lose events rather than stalling a sync.
type broadcaster[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan T
	closed bool
}

func newBroadcaster[T any]() *broadcaster[T] {
	return &broadcaster[T]{subs: make(map[int]chan T)}
}

func (b *broadcaster[T]) subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, 16)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

func (b *broadcaster[T]) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
