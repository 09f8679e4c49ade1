// Package syncer reconciles the local store against the remote gateway:
// incremental paginated downloads with per-record conflict resolution, a
// batched mutation upload phase, retry with exponential backoff, periodic
// background scheduling and connectivity-triggered resumption.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/newssync/connectivity"
	"github.com/dmitrijs2005/newssync/internal/logging"
	"github.com/dmitrijs2005/newssync/models"
	"github.com/dmitrijs2005/newssync/remote"
	"github.com/dmitrijs2005/newssync/store"
)

var (
	// ErrSyncInProgress is the fail-fast rejection of a concurrent sync.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrNoConnectivity means a foreground sync was requested offline.
	ErrNoConnectivity = errors.New("no connectivity")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("syncer closed")
)

// Config tunes the sync manager. Zero fields take defaults.
type Config struct {
	// Table is the logical table name recorded in sync metadata.
	Table string

	// PageSize/MaxPages bound one download phase.
	PageSize int
	MaxPages int

	Strategy models.ConflictStrategy
	Retry    RetryPolicy

	// BackgroundInterval is the periodic sync cadence; 0 disables the
	// timer.
	BackgroundInterval time.Duration

	// WifiOnly suppresses background syncs on non-Wi-Fi networks.
	WifiOnly bool

	// ResetDelay is how long completed/failed states linger before the
	// automatic return to idle.
	ResetDelay time.Duration

	// ResumeDelay is the wait before the connectivity-triggered retry.
	ResumeDelay time.Duration
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.Table == "" {
		c.Table = "news_records"
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 20
	}
	if c.Strategy == "" {
		c.Strategy = models.ServerWins
	}
	if c.Retry == (RetryPolicy{}) {
		c.Retry = DefaultRetryPolicy()
	}
	if c.BackgroundInterval == 0 {
		c.BackgroundInterval = 15 * time.Minute
	}
	if c.ResetDelay <= 0 {
		c.ResetDelay = 2 * time.Second
	}
	if c.ResumeDelay <= 0 {
		c.ResumeDelay = 2 * time.Second
	}
}

// Options select what one sync pass does.
type Options struct {
	// UserID scopes downloaded records ("" = guest scope).
	UserID string

	// Background marks timer-triggered passes, subject to the Wi-Fi-only
	// policy.
	Background bool

	// ForceFull ignores the incremental window.
	ForceFull bool
}

// Manager is the sync state machine. At most one sync pass is in flight;
// concurrent requests are rejected, not queued.
type Manager struct {
	store   *store.Store
	gateway remote.Gateway
	pusher  remote.MutationPusher
	conn    connectivity.Monitor
	cfg     Config
	log     logging.Logger

	mu          sync.Mutex
	status      models.SyncStatus
	attempt     int
	needsResume bool
	lastOpts    Options
	resetTimer  *time.Timer
	retryTimer  *time.Timer
	resumeTimer *time.Timer
	closed      bool

	results  *broadcaster[Result]
	progress *broadcaster[Progress]

	bgUser     string
	bgStop     chan struct{}
	bgDone     chan struct{}
	connCancel func()
}

// New constructs a Manager. pusher may be nil: the upload phase is then a
// no-op and local mutations stay queued. Call Start to enable background
// scheduling and Close to release all timers and listeners.
func New(st *store.Store, gw remote.Gateway, pusher remote.MutationPusher, conn connectivity.Monitor, cfg Config, log logging.Logger) *Manager {
	cfg.Defaults()
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		store:    st,
		gateway:  gw,
		pusher:   pusher,
		conn:     conn,
		cfg:      cfg,
		log:      log.With("component", "syncer"),
		status:   models.SyncIdle,
		results:  newBroadcaster[Result](),
		progress: newBroadcaster[Progress](),
	}
}

// Status returns the current state machine value.
func (m *Manager) Status() models.SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Results subscribes to terminal sync events.
func (m *Manager) Results() (<-chan Result, func()) { return m.results.subscribe() }

// Progress subscribes to the continuous state-progress stream.
func (m *Manager) Progress() (<-chan Progress, func()) { return m.progress.subscribe() }

// Sync runs one pass. It fails fast with ErrSyncInProgress while a pass is
// in flight; any other failure is also reported on the Results stream and
// retried with backoff.
func (m *Manager) Sync(ctx context.Context, opts Options) (*Result, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if m.status == models.SyncSyncing {
		m.mu.Unlock()
		syncsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrSyncInProgress
	}
	stopTimer(&m.resetTimer)
	m.status = models.SyncSyncing
	m.lastOpts = opts
	m.mu.Unlock()

	res := m.run(ctx, opts)
	m.finish(res, opts)

	if res.Err != nil {
		return &res, res.Err
	}
	return &res, nil
}

func (m *Manager) run(ctx context.Context, opts Options) Result {
	started := time.Now()
	result := func(err error) Result {
		return Result{
			Success:   err == nil,
			Duration:  time.Since(started),
			Timestamp: time.Now().UTC(),
			Err:       err,
		}
	}

	m.emitProgress(0.0, "Checking connectivity")

	if opts.Background && m.cfg.WifiOnly &&
		m.conn.CurrentKind(ctx) != connectivity.KindWifi {
		m.log.Debug(ctx, "background sync suppressed by wifi-only policy")
		r := result(nil)
		r.Skipped = true
		return r
	}
	if !m.conn.IsConnected(ctx) {
		return result(ErrNoConnectivity)
	}

	since := m.incrementalWindow(ctx, opts)

	downloaded, err := m.downloadPhase(ctx, opts, since)
	if err != nil {
		m.recordOutcome(ctx, models.SyncFailed, len(downloaded), 0, since, err)
		return result(err)
	}

	m.emitProgress(0.75, "Saving articles")
	if err := m.store.UpsertNews(ctx, downloaded); err != nil {
		err = fmt.Errorf("saving downloaded records: %w", err)
		m.recordOutcome(ctx, models.SyncFailed, 0, 0, since, err)
		return result(err)
	}

	m.emitProgress(0.85, "Uploading local changes")
	uploaded, err := m.uploadPhase(ctx, opts)
	if err != nil {
		m.recordOutcome(ctx, models.SyncFailed, len(downloaded), 0, since, err)
		return result(err)
	}

	m.emitProgress(0.95, "Finalizing")
	m.recordOutcome(ctx, models.SyncCompleted, len(downloaded), uploaded, since, nil)
	m.log.Info(ctx, "sync finished",
		"downloaded", len(downloaded), "uploaded", uploaded,
		"took", time.Since(started))

	r := result(nil)
	r.RecordCount = len(downloaded)
	return r
}

// incrementalWindow reads the last successful sync time; zero means a full
// sync (first run or ForceFull).
func (m *Manager) incrementalWindow(ctx context.Context, opts Options) time.Time {
	if opts.ForceFull {
		return time.Time{}
	}
	meta, err := m.store.GetSyncMetadata(ctx, m.cfg.Table, models.SyncDownload)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.Warn(ctx, "reading sync metadata failed, doing full sync", "error", err)
		}
		return time.Time{}
	}
	return meta.LastSyncTime
}

func (m *Manager) downloadPhase(ctx context.Context, opts Options, since time.Time) ([]models.NewsRecord, error) {
	var resolved []models.NewsRecord

	for page := 1; page <= m.cfg.MaxPages; page++ {
		m.emitProgress(0.1+0.6*float64(page-1)/float64(m.cfg.MaxPages),
			fmt.Sprintf("Downloading articles (page %d)", page))

		payloads, err := m.gateway.FetchNews(ctx, page, m.cfg.PageSize)
		if err != nil {
			return resolved, fmt.Errorf("downloading page %d: %w", page, err)
		}

		for _, p := range payloads {
			rec := p.Decode(opts.UserID)
			if !since.IsZero() && !rec.PublishedAt.IsZero() && !rec.PublishedAt.After(since) {
				continue
			}

			local, err := m.store.GetNews(ctx, rec.ID, rec.UserID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return resolved, fmt.Errorf("reading local record %q: %w", rec.ID, err)
			}

			if winner := resolveConflict(local, rec, m.cfg.Strategy); winner != nil {
				resolved = append(resolved, *winner)
			}
		}

		if len(payloads) < m.cfg.PageSize {
			break
		}
	}
	return resolved, nil
}

// uploadPhase pushes queued local mutations when a pusher is wired.
// Without one mutations stay queued for a later pass.
func (m *Manager) uploadPhase(ctx context.Context, opts Options) (int, error) {
	muts, err := m.store.PendingMutations(ctx, opts.UserID)
	if err != nil {
		return 0, fmt.Errorf("listing pending mutations: %w", err)
	}
	if m.pusher == nil || len(muts) == 0 {
		return 0, nil
	}
	if err := m.pusher.PushMutations(ctx, muts); err != nil {
		return 0, fmt.Errorf("pushing mutations: %w", err)
	}
	if err := m.store.MarkMutationsPushed(ctx, opts.UserID); err != nil {
		return 0, err
	}
	return len(muts), nil
}

// recordOutcome upserts the sync-metadata row; bookkeeping failures are
// logged, never escalated over the sync outcome itself.
func (m *Manager) recordOutcome(ctx context.Context, status models.SyncStatus, count, uploaded int, since time.Time, syncErr error) {
	details, _ := json.Marshal(map[string]any{
		"downloaded":  count,
		"uploaded":    uploaded,
		"incremental": !since.IsZero(),
	})

	meta := models.SyncMetadata{
		TableName:   m.cfg.Table,
		Direction:   models.SyncDownload,
		Status:      status,
		RecordCount: count,
		Details:     details,
	}
	if syncErr != nil {
		meta.ErrorMessage = syncErr.Error()
		meta.LastSyncTime = since // keep the old window so the retry re-covers it
	} else {
		meta.LastSyncTime = time.Now().UTC()
	}

	if err := m.store.UpsertSyncMetadata(ctx, meta); err != nil {
		m.log.Error(ctx, "failed to record sync outcome", "error", err)
	}
}

// finish moves the state machine out of syncing and schedules follow-ups:
// the auto-reset to idle, and the backoff retry on failure.
func (m *Manager) finish(res Result, opts Options) {
	m.mu.Lock()
	switch {
	case res.Skipped:
		m.status = models.SyncIdle
		syncsTotal.WithLabelValues("skipped").Inc()

	case res.Success:
		m.status = models.SyncCompleted
		m.attempt = 0
		m.needsResume = false
		m.scheduleResetLocked()
		syncsTotal.WithLabelValues("success").Inc()
		syncDuration.Observe(res.Duration.Seconds())
		syncRecords.Add(float64(res.RecordCount))

	default:
		m.status = models.SyncFailed
		m.needsResume = true
		m.scheduleResetLocked()
		syncsTotal.WithLabelValues("failure").Inc()

		if m.attempt < m.cfg.Retry.MaxRetries && !m.closed {
			delay := m.cfg.Retry.Delay(m.attempt)
			m.attempt++
			attempt := m.attempt
			stopTimer(&m.retryTimer)
			m.retryTimer = time.AfterFunc(delay, func() {
				m.log.Info(context.Background(), "retrying sync",
					"attempt", attempt, "delay", delay)
				_, _ = m.Sync(context.Background(), opts)
			})
		}
	}
	status := m.status
	m.mu.Unlock()

	m.emitStatus(status, res)
	m.results.publish(res)
}

// scheduleResetLocked arms the completed/failed → idle transition.
func (m *Manager) scheduleResetLocked() {
	stopTimer(&m.resetTimer)
	m.resetTimer = time.AfterFunc(m.cfg.ResetDelay, func() {
		m.mu.Lock()
		if m.status == models.SyncCompleted || m.status == models.SyncFailed {
			m.status = models.SyncIdle
		}
		m.mu.Unlock()
		m.progress.publish(Progress{Status: models.SyncIdle, Fraction: 0, Operation: "Idle"})
	})
}

func (m *Manager) emitProgress(fraction float64, op string) {
	m.progress.publish(Progress{Status: models.SyncSyncing, Fraction: fraction, Operation: op})
}

func (m *Manager) emitStatus(status models.SyncStatus, res Result) {
	op := "Completed"
	fraction := 1.0
	if res.Err != nil {
		op = "Failed: " + res.Err.Error()
	}
	if res.Skipped {
		op = "Skipped"
	}
	m.progress.publish(Progress{Status: status, Fraction: fraction, Operation: op})
}

func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
