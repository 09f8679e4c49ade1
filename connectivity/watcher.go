package connectivity

import (
	"context"
	"sync/atomic"
	"time"
)

// Pinger probes remote reachability. The remote gateway satisfies this.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher derives connectivity transitions by periodically probing a Pinger.
// It is the fallback for hosts without a platform connectivity signal: a
// successful probe is reported as KindWifi (the prober cannot tell radio
// types apart), a failed one as KindNone.
//
// Watcher embeds a Manual monitor, so it satisfies Monitor.
type Watcher struct {
	*Manual

	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	started  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
}

// NewWatcher constructs a Watcher probing every interval. Call Start to
// begin probing and Close to release the ticker.
func NewWatcher(pinger Pinger, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{
		Manual:   NewManual(KindNone),
		pinger:   pinger,
		interval: interval,
		timeout:  3 * time.Second,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start probes once immediately, then on every tick until Close is called.
// Repeat calls are no-ops.
func (w *Watcher) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.probe()
		for {
			select {
			case <-ticker.C:
				w.probe()
			case <-w.stop:
				return
			}
		}
	}()
}

func (w *Watcher) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.pinger.Ping(ctx); err != nil {
		w.Set(KindNone)
		return
	}
	w.Set(KindWifi)
}

// Close stops the probing goroutine and waits for it to exit. Safe to call
// on a watcher that was never started.
func (w *Watcher) Close() {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	if w.started.Load() {
		<-w.done
	}
}
