package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/newssync/models"
)

// Per-source base relevance. Historical queries rank highest: the user has
// literally typed them before.
const (
	relevanceHistorical = 0.9
	relevanceKeyword    = 0.8
	relevanceSource     = 0.7
	relevanceTitle      = 0.6
)

const suggestionScanLimit = 100

// Suggestions returns typeahead candidates for the prefix, merged from four
// sources: article keywords, publisher names, article titles and the user's
// own search history. Passing types restricts which sources contribute; none
// means all of them. Duplicates are collapsed case-insensitively keeping
// the highest relevance; results are cached per (user, prefix, types) for
// the configured TTL.
func (e *Engine) Suggestions(ctx context.Context, userID, prefix string, limit int, types ...models.SuggestionType) ([]models.SearchSuggestion, error) {
	if limit <= 0 {
		limit = 10
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}

	key := suggestionKey(userID, prefix, types)
	if cached, ok := e.suggestions.get(key); ok {
		suggestionCacheHits.Inc()
		return truncateSuggestions(cached, limit), nil
	}

	want := suggestionTypeSet(types)
	var all []models.SearchSuggestion
	if want[models.SuggestionKeyword] {
		all = append(all, e.keywordSuggestions(ctx, userID, prefix)...)
	}
	if want[models.SuggestionSource] {
		all = append(all, e.sourceSuggestions(ctx, userID, prefix)...)
	}
	if want[models.SuggestionTitle] {
		all = append(all, e.titleSuggestions(ctx, userID, prefix)...)
	}
	if want[models.SuggestionHistorical] {
		all = append(all, e.historySuggestions(ctx, userID, prefix)...)
	}

	merged := mergeSuggestions(all)
	e.suggestions.put(key, merged)
	return truncateSuggestions(merged, limit), nil
}

func suggestionKey(userID, prefix string, types []models.SuggestionType) string {
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, string(t))
	}
	sort.Strings(parts)
	return userID + "\x00" + strings.ToLower(prefix) + "\x00" + strings.Join(parts, ",")
}

func suggestionTypeSet(types []models.SuggestionType) map[models.SuggestionType]bool {
	if len(types) == 0 {
		return map[models.SuggestionType]bool{
			models.SuggestionKeyword:    true,
			models.SuggestionSource:     true,
			models.SuggestionTitle:      true,
			models.SuggestionHistorical: true,
		}
	}
	set := make(map[models.SuggestionType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

func (e *Engine) keywordSuggestions(ctx context.Context, userID, prefix string) []models.SearchSuggestion {
	recs, err := e.store.RecentByUser(ctx, userID, suggestionScanLimit)
	if err != nil {
		e.log.Warn(ctx, "keyword suggestions unavailable", "error", err)
		return nil
	}
	lower := strings.ToLower(prefix)
	freq := make(map[string]int)
	display := make(map[string]string)
	for _, rec := range recs {
		for _, kw := range rec.Keywords {
			kw = strings.TrimSpace(kw)
			lk := strings.ToLower(kw)
			if !strings.HasPrefix(lk, lower) {
				continue
			}
			freq[lk]++
			if _, ok := display[lk]; !ok {
				display[lk] = kw
			}
		}
	}
	out := make([]models.SearchSuggestion, 0, len(freq))
	for lk, n := range freq {
		out = append(out, models.SearchSuggestion{
			Text:           display[lk],
			Type:           models.SuggestionKeyword,
			Frequency:      n,
			RelevanceScore: relevanceKeyword,
		})
	}
	return out
}

func (e *Engine) sourceSuggestions(ctx context.Context, userID, prefix string) []models.SearchSuggestion {
	stats, err := e.store.NewsStats(ctx, userID)
	if err != nil {
		e.log.Warn(ctx, "source suggestions unavailable", "error", err)
		return nil
	}
	lower := strings.ToLower(prefix)
	var out []models.SearchSuggestion
	for source, n := range stats.BySource {
		if !strings.HasPrefix(strings.ToLower(source), lower) {
			continue
		}
		out = append(out, models.SearchSuggestion{
			Text:           source,
			Type:           models.SuggestionSource,
			Frequency:      n,
			RelevanceScore: relevanceSource,
		})
	}
	return out
}

func (e *Engine) titleSuggestions(ctx context.Context, userID, prefix string) []models.SearchSuggestion {
	recs, err := e.store.RecentByUser(ctx, userID, suggestionScanLimit)
	if err != nil {
		e.log.Warn(ctx, "title suggestions unavailable", "error", err)
		return nil
	}
	lower := strings.ToLower(prefix)
	var out []models.SearchSuggestion
	for _, rec := range recs {
		if strings.Contains(strings.ToLower(rec.Title), lower) {
			out = append(out, models.SearchSuggestion{
				Text:           rec.Title,
				Type:           models.SuggestionTitle,
				Frequency:      1,
				RelevanceScore: relevanceTitle,
			})
		}
	}
	return out
}

func (e *Engine) historySuggestions(ctx context.Context, userID, prefix string) []models.SearchSuggestion {
	entries, err := e.store.SearchHistory(ctx, userID, time.Time{}, time.Time{}, suggestionScanLimit)
	if err != nil {
		e.log.Warn(ctx, "history suggestions unavailable", "error", err)
		return nil
	}
	lower := strings.ToLower(prefix)
	freq := make(map[string]int)
	display := make(map[string]string)
	for _, entry := range entries {
		lq := strings.ToLower(entry.Query)
		if !strings.HasPrefix(lq, lower) {
			continue
		}
		freq[lq]++
		if _, ok := display[lq]; !ok {
			display[lq] = entry.Query
		}
	}
	out := make([]models.SearchSuggestion, 0, len(freq))
	for lq, n := range freq {
		out = append(out, models.SearchSuggestion{
			Text:           display[lq],
			Type:           models.SuggestionHistorical,
			Frequency:      n,
			RelevanceScore: relevanceHistorical,
		})
	}
	return out
}

// mergeSuggestions dedupes case-insensitively keeping the most relevant
// occurrence, then orders by relevance, frequency, text.
func mergeSuggestions(all []models.SearchSuggestion) []models.SearchSuggestion {
	best := make(map[string]models.SearchSuggestion, len(all))
	for _, s := range all {
		key := strings.ToLower(s.Text)
		if prev, ok := best[key]; ok {
			if s.RelevanceScore > prev.RelevanceScore ||
				(s.RelevanceScore == prev.RelevanceScore && s.Frequency > prev.Frequency) {
				best[key] = s
			}
			continue
		}
		best[key] = s
	}
	out := make([]models.SearchSuggestion, 0, len(best))
	for _, s := range best {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Text < out[j].Text
	})
	return out
}

func truncateSuggestions(s []models.SearchSuggestion, limit int) []models.SearchSuggestion {
	if len(s) > limit {
		s = s[:limit]
	}
	out := make([]models.SearchSuggestion, len(s))
	copy(out, s)
	return out
}

// suggestionCache is a small TTL cache keyed by (user, prefix); when full,
// the entry with the oldest timestamp is evicted.
type suggestionCache struct {
	mu      sync.Mutex
	entries map[string]suggestionEntry
	ttl     time.Duration
	maxKeys int
	now     func() time.Time
}

type suggestionEntry struct {
	items    []models.SearchSuggestion
	storedAt time.Time
}

func newSuggestionCache(ttl time.Duration, maxKeys int) *suggestionCache {
	return &suggestionCache{
		entries: make(map[string]suggestionEntry),
		ttl:     ttl,
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

func (c *suggestionCache) get(key string) ([]models.SearchSuggestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.items, true
}

func (c *suggestionCache) put(key string, items []models.SearchSuggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxKeys {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey, oldest = k, e.storedAt
			}
		}
		delete(c.entries, oldestKey)
	}
	c.entries[key] = suggestionEntry{items: items, storedAt: c.now()}
}

func (c *suggestionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]suggestionEntry)
}

// InvalidateSuggestions drops the suggestion cache, e.g. after a sync
// replaces the underlying articles.
func (e *Engine) InvalidateSuggestions() { e.suggestions.clear() }

// Debouncer coalesces rapid calls, running only the last function once the
// interval elapses with no newer call. It is a utility for embedding hosts
// whose UI drives Suggestions per keystroke; nothing in this module calls
// it directly, since the bundled CLI reads whole lines.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	closed   bool
}

// NewDebouncer returns a debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = 300 * time.Millisecond
	}
	return &Debouncer{interval: interval}
}

// Do schedules fn, cancelling any previously scheduled call.
func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, fn)
}

// Close cancels any pending call; further Do calls are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
