package syncer

import (
	"context"
	"time"

	"github.com/dmitrijs2005/newssync/models"
)

// Start enables the periodic background timer and the connectivity-change
// listener. Both funnel into Sync, so mutual exclusion with user-triggered
// syncs is automatic.
func (m *Manager) Start(userID string) {
	m.mu.Lock()
	if m.closed || m.bgStop != nil {
		m.mu.Unlock()
		return
	}
	m.bgUser = userID
	m.bgStop = make(chan struct{})
	m.bgDone = make(chan struct{})
	stop := m.bgStop
	m.mu.Unlock()

	ch, cancel := m.conn.Subscribe()
	m.mu.Lock()
	m.connCancel = cancel
	m.mu.Unlock()

	go func() {
		defer close(m.bgDone)

		var ticker *time.Ticker
		var tick <-chan time.Time
		if m.cfg.BackgroundInterval > 0 {
			ticker = time.NewTicker(m.cfg.BackgroundInterval)
			tick = ticker.C
			defer ticker.Stop()
		}

		for {
			select {
			case <-tick:
				if m.Status() == models.SyncIdle {
					_, _ = m.Sync(context.Background(), Options{
						UserID:     m.scopeUser(),
						Background: true,
					})
				}

			case change, ok := <-ch:
				if !ok {
					return
				}
				if change.Online {
					m.maybeResume(m.scopeUser())
				}

			case <-stop:
				return
			}
		}
	}()
}

// Rescope changes the user scope of future scheduled syncs, e.g. after a
// sign-in.
func (m *Manager) Rescope(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bgUser = userID
}

func (m *Manager) scopeUser() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bgUser
}

// maybeResume schedules an immediate retry after connectivity returns while
// the last pass had failed. Idempotent against an in-flight sync: the retry
// goes through Sync, which rejects concurrents.
func (m *Manager) maybeResume(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || !m.needsResume {
		return
	}
	m.needsResume = false
	stopTimer(&m.resumeTimer)
	m.resumeTimer = time.AfterFunc(m.cfg.ResumeDelay, func() {
		m.log.Info(context.Background(), "connectivity restored, resuming sync")
		_, _ = m.Sync(context.Background(), Options{UserID: userID})
	})
}

// Close tears the manager down: stops the background loop, the connectivity
// subscription and every pending timer, and closes the event streams. No
// timers or listeners survive Close.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	stopTimer(&m.resetTimer)
	stopTimer(&m.retryTimer)
	stopTimer(&m.resumeTimer)
	bgStop := m.bgStop
	bgDone := m.bgDone
	connCancel := m.connCancel
	m.mu.Unlock()

	if connCancel != nil {
		connCancel()
	}
	if bgStop != nil {
		close(bgStop)
		<-bgDone
	}

	m.results.close()
	m.progress.close()
}
