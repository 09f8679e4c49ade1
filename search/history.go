package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/newssync/models"
)

// RecordSearch persists one completed search and enforces the retention
// policy. Best-effort: failures are logged, never returned, so a broken
// history table cannot break search itself.
func (e *Engine) RecordSearch(ctx context.Context, entry models.SearchHistoryEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = e.now()
	}
	if err := e.store.InsertSearchHistory(ctx, entry); err != nil {
		e.log.Warn(ctx, "failed to record search history", "error", err)
		return
	}
	if err := e.store.EnforceHistoryRetention(ctx, entry.UserID, e.cfg.HistoryMaxEntries, e.cfg.HistoryMaxAge); err != nil {
		e.log.Warn(ctx, "failed to enforce history retention", "error", err)
	}
}

// History returns the user's recorded searches, newest first, optionally
// bounded by time.
func (e *Engine) History(ctx context.Context, userID string, from, to time.Time, limit int) ([]models.SearchHistoryEntry, error) {
	return e.store.SearchHistory(ctx, userID, from, to, limit)
}

// ClearHistory removes every recorded search for the user.
func (e *Engine) ClearHistory(ctx context.Context, userID string) error {
	return e.store.ClearSearchHistory(ctx, userID)
}

// Analytics aggregates the user's recorded searches within the optional
// window. Storage failure yields the zero value, not an error: analytics
// are advisory.
func (e *Engine) Analytics(ctx context.Context, userID string, from, to time.Time) models.SearchAnalytics {
	entries, err := e.store.SearchHistory(ctx, userID, from, to, 0)
	if err != nil {
		e.log.Warn(ctx, "search analytics unavailable", "error", err)
		return models.SearchAnalytics{}
	}
	return aggregateAnalytics(entries)
}

func aggregateAnalytics(entries []models.SearchHistoryEntry) models.SearchAnalytics {
	var a models.SearchAnalytics
	if len(entries) == 0 {
		return a
	}

	a.TotalSearches = len(entries)

	var totalResults int
	var totalDuration time.Duration
	freq := make(map[string]int)
	display := make(map[string]string)

	for _, entry := range entries {
		totalResults += entry.ResultCount
		totalDuration += entry.Duration
		a.SearchesByHour[entry.Timestamp.Hour()]++

		q := strings.ToLower(strings.TrimSpace(entry.Query))
		if q == "" {
			continue
		}
		freq[q]++
		if _, ok := display[q]; !ok {
			display[q] = entry.Query
		}
	}

	a.AvgResultCount = float64(totalResults) / float64(len(entries))
	a.AvgDuration = totalDuration / time.Duration(len(entries))
	a.UniqueQueries = len(freq)

	top := make([]models.QueryFrequency, 0, len(freq))
	for q, n := range freq {
		top = append(top, models.QueryFrequency{Query: display[q], Frequency: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Frequency != top[j].Frequency {
			return top[i].Frequency > top[j].Frequency
		}
		return top[i].Query < top[j].Query
	})
	if len(top) > 10 {
		top = top[:10]
	}
	a.MostFrequentQueries = top
	return a
}
