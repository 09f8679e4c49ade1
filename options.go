package newssync

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/newssync/connectivity"
	"github.com/dmitrijs2005/newssync/internal/logging"
	"github.com/dmitrijs2005/newssync/search"
	"github.com/dmitrijs2005/newssync/syncer"
)

// settings collects everything Open can be tuned with.
type settings struct {
	log            logging.Logger
	httpClient     *http.Client
	conn           connectivity.Monitor
	syncCfg        syncer.Config
	searchCfg      search.Config
	feedTTL        time.Duration
	searchTTL      time.Duration
	probeInterval  time.Duration
	initialUser    string
	backgroundSync bool
}

func defaultSettings() settings {
	return settings{
		log:            logging.Default(),
		feedTTL:        0, // feed pages stay usable until a sync replaces them
		searchTTL:      15 * time.Minute,
		probeInterval:  30 * time.Second,
		initialUser:    GuestUserID,
		backgroundSync: true,
	}
}

// Option customizes Open.
type Option func(*settings)

// WithLogger replaces the default slog-backed logger.
func WithLogger(log logging.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

// WithHTTPClient replaces the default HTTP client used for all backend
// calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithConnectivity injects a connectivity monitor (e.g. one driven by
// platform callbacks). Without it the service probes the backend
// periodically.
func WithConnectivity(m connectivity.Monitor) Option {
	return func(s *settings) { s.conn = m }
}

// WithSyncConfig tunes the sync manager; zero fields keep their defaults.
func WithSyncConfig(cfg syncer.Config) Option {
	return func(s *settings) { s.syncCfg = cfg }
}

// WithSearchConfig tunes the search engine; zero fields keep their
// defaults.
func WithSearchConfig(cfg search.Config) Option {
	return func(s *settings) { s.searchCfg = cfg }
}

// WithFeedTTL sets how long a cached feed page counts as fresh. Zero, the
// default, keeps feed pages fresh until a sync or sign-in replaces them.
func WithFeedTTL(ttl time.Duration) Option {
	return func(s *settings) { s.feedTTL = ttl }
}

// WithSearchTTL sets how long ranked search results are reused before being
// recomputed.
func WithSearchTTL(ttl time.Duration) Option {
	return func(s *settings) { s.searchTTL = ttl }
}

// WithProbeInterval sets the connectivity probe cadence used when no
// monitor is injected.
func WithProbeInterval(d time.Duration) Option {
	return func(s *settings) { s.probeInterval = d }
}

// WithUser sets the initial user scope (default guest).
func WithUser(userID string) Option {
	return func(s *settings) {
		if userID != "" {
			s.initialUser = userID
		}
	}
}

// WithoutBackgroundSync disables the periodic background sync scheduler;
// syncs then run only when SyncNow is called.
func WithoutBackgroundSync() Option {
	return func(s *settings) { s.backgroundSync = false }
}
