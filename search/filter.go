package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/newssync/models"
)

// filterScanLimit bounds the base scan when no date range narrows it.
const filterScanLimit = 500

// FilterResult is a filtered listing plus the access paths it used.
type FilterResult struct {
	Records []models.NewsRecord

	// IndicesUsed names the logical access paths taken, for diagnostics.
	IndicesUsed []string
}

// FilterByCriteria applies a multi-criteria filter over the user's cached
// articles. The date range narrows the base set via the published-at index
// when both bounds are present; every other criterion narrows in memory,
// most selective first. Results are stably sorted and truncated.
func (e *Engine) FilterByCriteria(ctx context.Context, userID string, filter models.SearchFilter) (*FilterResult, error) {
	var (
		recs    []models.NewsRecord
		indices []string
		err     error
	)

	if !filter.From.IsZero() && !filter.To.IsZero() {
		recs, err = e.store.ByDateRange(ctx, userID, filter.From, filter.To)
		indices = append(indices, "idx_news_user_published")
	} else {
		recs, err = e.store.RecentByUser(ctx, userID, filterScanLimit)
		indices = append(indices, "user_recent_scan")
	}
	if err != nil {
		return nil, fmt.Errorf("loading filter base set: %w", err)
	}

	if len(filter.Sources) > 0 {
		recs = narrowBySource(recs, filter.Sources)
		indices = append(indices, "source_allowlist")
	}
	if filter.BookmarkedSet {
		recs = narrowByBookmark(recs, filter.BookmarkedOnly)
		indices = append(indices, "bookmark_state")
	}
	if filter.SentimentSet {
		recs = narrowBySentiment(recs, filter.MinSentiment, filter.MaxSentiment)
		indices = append(indices, "sentiment_range")
	}
	if len(filter.Keywords) > 0 {
		recs = narrowByKeywords(recs, filter.Keywords)
		indices = append(indices, "keyword_set")
	}
	if filter.Query != "" {
		recs = narrowByQuery(recs, filter.Query)
		indices = append(indices, "text_contains")
	}

	sortRecords(recs, filter.SortBy, filter.Descending)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}

	return &FilterResult{Records: recs, IndicesUsed: indices}, nil
}

func narrowBySource(recs []models.NewsRecord, sources []string) []models.NewsRecord {
	allowed := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		allowed[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	out := recs[:0]
	for _, r := range recs {
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(r.Source))]; ok {
			out = append(out, r)
		}
	}
	return out
}

func narrowByBookmark(recs []models.NewsRecord, bookmarked bool) []models.NewsRecord {
	out := recs[:0]
	for _, r := range recs {
		if r.IsBookmarked == bookmarked {
			out = append(out, r)
		}
	}
	return out
}

func narrowBySentiment(recs []models.NewsRecord, min, max float64) []models.NewsRecord {
	out := recs[:0]
	for _, r := range recs {
		if r.SentimentScore >= min && r.SentimentScore <= max {
			out = append(out, r)
		}
	}
	return out
}

// narrowByKeywords keeps records carrying every requested keyword,
// case-insensitively.
func narrowByKeywords(recs []models.NewsRecord, keywords []string) []models.NewsRecord {
	wanted := make([]string, len(keywords))
	for i, kw := range keywords {
		wanted[i] = strings.ToLower(strings.TrimSpace(kw))
	}
	out := recs[:0]
	for _, r := range recs {
		have := make(map[string]struct{}, len(r.Keywords))
		for _, kw := range r.Keywords {
			have[strings.ToLower(strings.TrimSpace(kw))] = struct{}{}
		}
		all := true
		for _, kw := range wanted {
			if _, ok := have[kw]; !ok {
				all = false
				break
			}
		}
		if all {
			out = append(out, r)
		}
	}
	return out
}

func narrowByQuery(recs []models.NewsRecord, query string) []models.NewsRecord {
	q := strings.ToLower(query)
	out := recs[:0]
	for _, r := range recs {
		if strings.Contains(strings.ToLower(r.Title), q) ||
			strings.Contains(strings.ToLower(r.Summary), q) ||
			strings.Contains(strings.ToLower(r.Content), q) {
			out = append(out, r)
		}
	}
	return out
}

func sortRecords(recs []models.NewsRecord, field models.SortField, descending bool) {
	var less func(a, b models.NewsRecord) bool
	switch field {
	case models.SortBySentiment:
		less = func(a, b models.NewsRecord) bool { return a.SentimentScore < b.SentimentScore }
	case models.SortByTitle:
		less = func(a, b models.NewsRecord) bool { return a.Title < b.Title }
	case models.SortBySource:
		less = func(a, b models.NewsRecord) bool { return a.Source < b.Source }
	default: // publishedAt
		less = func(a, b models.NewsRecord) bool { return a.PublishedAt.Before(b.PublishedAt) }
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if descending {
			return less(recs[j], recs[i])
		}
		return less(recs[i], recs[j])
	})
}
