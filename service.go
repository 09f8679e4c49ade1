package newssync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/newssync/auth"
	"github.com/dmitrijs2005/newssync/cache"
	"github.com/dmitrijs2005/newssync/connectivity"
	"github.com/dmitrijs2005/newssync/internal/logging"
	"github.com/dmitrijs2005/newssync/models"
	"github.com/dmitrijs2005/newssync/remote"
	"github.com/dmitrijs2005/newssync/search"
	"github.com/dmitrijs2005/newssync/store"
	"github.com/dmitrijs2005/newssync/syncer"
)

// GuestUserID scopes data for the signed-out state.
const GuestUserID = "guest"

// ErrOffline is returned when an operation needs the network or a cached
// copy and has neither.
var ErrOffline = cache.ErrOffline

// Config holds the two mandatory settings; everything else is an Option.
type Config struct {
	// BaseURL is the backend API root, e.g. "https://api.example.com/v1".
	BaseURL string

	// DSN is the sqlite database location, e.g. "file:news.db".
	DSN string
}

// Service is the assembled offline-first core: local store, feed cache,
// sync manager and search engine behind one facade. Safe for concurrent
// use.
type Service struct {
	log     logging.Logger
	store   *store.Store
	session *auth.SessionProvider
	gateway *remote.HTTPGateway
	conn    connectivity.Monitor
	watcher *connectivity.Watcher
	feed    *cache.Cache[[]models.NewsRecord]
	ranked  *cache.Cache[*search.Results]
	sync    *syncer.Manager
	search  *search.Engine

	mu     sync.Mutex
	userID string

	resultsCancel func()
	closeOnce     sync.Once
}

// Open builds the service: opens (and migrates) the sqlite store, wires the
// HTTP gateway, connectivity monitoring, the feed cache, the sync manager
// and the search engine, and starts background sync scheduling unless
// disabled.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Service, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.DSN == "" {
		return nil, errors.New("database DSN is required")
	}

	st := defaultSettings()
	for _, opt := range opts {
		opt(&st)
	}

	db, err := store.Open(ctx, cfg.DSN, st.log)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	session := auth.NewSessionProvider()
	gateway := remote.NewHTTPGateway(cfg.BaseURL, session, st.httpClient)

	s := &Service{
		log:     st.log,
		store:   db,
		session: session,
		gateway: gateway,
		conn:    st.conn,
		userID:  st.initialUser,
	}
	if s.conn == nil {
		s.watcher = connectivity.NewWatcher(gateway, st.probeInterval)
		s.watcher.Start()
		s.conn = s.watcher
	}

	s.feed = cache.New[[]models.NewsRecord](s.conn, st.feedTTL, st.log)
	s.ranked = cache.New[*search.Results](s.conn, st.searchTTL, st.log)
	s.sync = syncer.New(db, gateway, gateway, s.conn, st.syncCfg, st.log)
	s.search = search.NewEngine(db, st.searchCfg, st.log)

	if st.backgroundSync {
		s.sync.Start(st.initialUser)
	}
	s.watchSyncResults()

	return s, nil
}

// watchSyncResults invalidates the in-memory caches after each successful
// sync so the next read sees the new articles.
func (s *Service) watchSyncResults() {
	ch, cancel := s.sync.Results()
	s.resultsCancel = cancel
	go func() {
		for res := range ch {
			if res.Success && !res.Skipped {
				s.feed.Clear()
				s.ranked.Clear()
				s.search.InvalidateSuggestions()
			}
		}
	}()
}

// SignIn installs the user's bearer token and rescopes all subsequent
// operations to that user.
func (s *Service) SignIn(userID, token string) {
	s.session.SetToken(token)
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
	s.sync.Rescope(userID)
	s.feed.Clear()
	s.ranked.Clear()
	s.search.InvalidateSuggestions()
}

// SignOut clears the session and returns to the guest scope.
func (s *Service) SignOut() {
	s.session.SetToken("")
	s.mu.Lock()
	s.userID = GuestUserID
	s.mu.Unlock()
	s.sync.Rescope(GuestUserID)
	s.feed.Clear()
	s.ranked.Clear()
	s.search.InvalidateSuggestions()
}

// CurrentUser returns the active user scope.
func (s *Service) CurrentUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// PersonalizedFeed returns the user's feed page via the
// stale-while-revalidate cache. The bool reports staleness. Offline with
// no cached page, it falls back to locally stored articles before giving
// up with ErrOffline.
func (s *Service) PersonalizedFeed(ctx context.Context, page, limit int) ([]models.NewsRecord, bool, error) {
	if limit <= 0 {
		limit = 20
	}
	user := s.CurrentUser()
	key := cache.PersonalizedKey(user, page, limit)

	recs, stale, err := s.feed.Get(ctx, key, func(ctx context.Context) ([]models.NewsRecord, error) {
		payloads, err := s.gateway.FetchPersonalized(ctx, limit)
		if err != nil {
			return nil, err
		}
		return s.storePayloads(ctx, user, payloads)
	})
	if errors.Is(err, cache.ErrOffline) {
		return s.localFallback(ctx, user, limit)
	}
	return recs, stale, err
}

// Feed returns the general (non-personalized) feed page through the same
// cache policy.
func (s *Service) Feed(ctx context.Context, page, limit int) ([]models.NewsRecord, bool, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	user := s.CurrentUser()
	key := cache.FeedKey(page, limit)

	recs, stale, err := s.feed.Get(ctx, key, func(ctx context.Context) ([]models.NewsRecord, error) {
		payloads, err := s.gateway.FetchNews(ctx, page, limit)
		if err != nil {
			return nil, err
		}
		return s.storePayloads(ctx, user, payloads)
	})
	if errors.Is(err, cache.ErrOffline) {
		return s.localFallback(ctx, user, limit)
	}
	return recs, stale, err
}

func (s *Service) storePayloads(ctx context.Context, user string, payloads []models.ArticlePayload) ([]models.NewsRecord, error) {
	recs := make([]models.NewsRecord, len(payloads))
	for i, p := range payloads {
		recs[i] = p.Decode(user)
	}
	if err := s.store.UpsertNews(ctx, recs); err != nil {
		// the fetch succeeded; serve it even if persisting failed
		s.log.Warn(ctx, "failed to persist fetched articles", "error", err)
	}
	return recs, nil
}

func (s *Service) localFallback(ctx context.Context, user string, limit int) ([]models.NewsRecord, bool, error) {
	recs, err := s.store.RecentByUser(ctx, user, limit)
	if err != nil || len(recs) == 0 {
		return nil, false, ErrOffline
	}
	s.log.Info(ctx, "serving feed from local store", "user", user, "count", len(recs))
	return recs, true, nil
}

// Article returns one locally stored article.
func (s *Service) Article(ctx context.Context, id string) (*models.NewsRecord, error) {
	return s.store.GetNews(ctx, id, s.CurrentUser())
}

// Bookmark flips an article's bookmark state. The change is queued as a
// local mutation and uploaded on the next sync pass.
func (s *Service) Bookmark(ctx context.Context, id string, bookmarked bool) error {
	if err := s.store.SetBookmarked(ctx, id, s.CurrentUser(), bookmarked); err != nil {
		return err
	}
	// bookmark state feeds the ranking, so cached rankings are out of date
	s.ranked.Clear()
	return nil
}

// Bookmarked lists the user's bookmarked articles, newest first.
func (s *Service) Bookmarked(ctx context.Context) ([]models.NewsRecord, error) {
	return s.store.Bookmarked(ctx, s.CurrentUser())
}

// SetSentiment stores a sentiment annotation for an article and queues it
// for upload.
func (s *Service) SetSentiment(ctx context.Context, id string, score float64, label models.SentimentLabel) error {
	if err := s.store.UpdateSentiment(ctx, id, s.CurrentUser(), score, label); err != nil {
		return err
	}
	s.ranked.Clear()
	return nil
}

// Search runs a relevance-ranked search over the user's cached articles.
// Identical queries reuse the previous ranking for a short window instead of
// rescoring.
func (s *Service) Search(ctx context.Context, query string, limit int, threshold float64) (*search.Results, error) {
	user := s.CurrentUser()
	key := cache.SearchKey(user, fmt.Sprintf("%s_t%g", query, threshold), limit)
	if res, ok := s.ranked.Fresh(key); ok {
		return res, nil
	}
	res, err := s.search.SemanticSearch(ctx, query, user, limit, threshold)
	if err != nil {
		return nil, err
	}
	s.ranked.Put(key, res)
	return res, nil
}

// Filter applies a multi-criteria filter over the user's cached articles.
func (s *Service) Filter(ctx context.Context, filter models.SearchFilter) (*search.FilterResult, error) {
	return s.search.FilterByCriteria(ctx, s.CurrentUser(), filter)
}

// Suggestions returns typeahead candidates for a query prefix, optionally
// restricted to a subset of suggestion sources.
func (s *Service) Suggestions(ctx context.Context, prefix string, limit int, types ...models.SuggestionType) ([]models.SearchSuggestion, error) {
	return s.search.Suggestions(ctx, s.CurrentUser(), prefix, limit, types...)
}

// SearchHistory lists the user's recorded searches, newest first.
func (s *Service) SearchHistory(ctx context.Context, from, to time.Time, limit int) ([]models.SearchHistoryEntry, error) {
	return s.search.History(ctx, s.CurrentUser(), from, to, limit)
}

// ClearSearchHistory removes the user's recorded searches.
func (s *Service) ClearSearchHistory(ctx context.Context) error {
	return s.search.ClearHistory(ctx, s.CurrentUser())
}

// SearchAnalytics aggregates the user's search behaviour within the
// optional window.
func (s *Service) SearchAnalytics(ctx context.Context, from, to time.Time) models.SearchAnalytics {
	return s.search.Analytics(ctx, s.CurrentUser(), from, to)
}

// SyncNow runs a foreground sync pass for the current user.
func (s *Service) SyncNow(ctx context.Context) (*syncer.Result, error) {
	return s.sync.Sync(ctx, syncer.Options{UserID: s.CurrentUser()})
}

// FullSync runs a foreground pass ignoring the incremental window.
func (s *Service) FullSync(ctx context.Context) (*syncer.Result, error) {
	return s.sync.Sync(ctx, syncer.Options{UserID: s.CurrentUser(), ForceFull: true})
}

// SyncStatus reports the sync state machine's current value.
func (s *Service) SyncStatus() models.SyncStatus { return s.sync.Status() }

// SyncResults subscribes to terminal sync events.
func (s *Service) SyncResults() (<-chan syncer.Result, func()) { return s.sync.Results() }

// SyncProgress subscribes to the sync progress stream.
func (s *Service) SyncProgress() (<-chan syncer.Progress, func()) { return s.sync.Progress() }

// Online reports current connectivity.
func (s *Service) Online(ctx context.Context) bool { return s.conn.IsConnected(ctx) }

// Stats summarizes the user's locally cached news.
func (s *Service) Stats(ctx context.Context) (*store.Stats, error) {
	return s.store.NewsStats(ctx, s.CurrentUser())
}

// Maintain prunes old cached articles (bookmarks exempt) and stale sync
// metadata. Intended to run opportunistically, e.g. at startup.
func (s *Service) Maintain(ctx context.Context, keepArticles int, maxArticleAge time.Duration) error {
	removed, err := s.store.CleanupNews(ctx, s.CurrentUser(), keepArticles, maxArticleAge)
	if err != nil {
		return fmt.Errorf("cleaning up news: %w", err)
	}
	if _, err := s.store.PruneSyncMetadata(ctx, time.Now().UTC().Add(-30*24*time.Hour)); err != nil {
		return fmt.Errorf("pruning sync metadata: %w", err)
	}
	s.log.Info(ctx, "maintenance finished", "removed", removed)
	return nil
}

// Close releases everything: sync timers and listeners, the connectivity
// watcher and the database. Idempotent.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.resultsCancel != nil {
			s.resultsCancel()
		}
		s.sync.Close()
		if s.watcher != nil {
			s.watcher.Close()
		}
		err = s.store.Close()
	})
	return err
}
