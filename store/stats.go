package store

import (
	"context"
	"fmt"
	"time"
)

// Stats summarizes a user's cached news.
type Stats struct {
	Total      int
	Bookmarked int

	// Fresh counts records cached within the last 24 hours.
	Fresh int

	// BySource maps publisher name to record count.
	BySource map[string]int
}

// NewsStats computes aggregate statistics for one user's cache.
func (s *Store) NewsStats(ctx context.Context, userID string) (*Stats, error) {
	st := &Stats{BySource: make(map[string]int)}
	freshCutoff := time.Now().UTC().Add(-24 * time.Hour).Unix()

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(is_bookmarked), 0),
			COALESCE(SUM(CASE WHEN cached_at >= ? THEN 1 ELSE 0 END), 0)
		FROM news_records WHERE user_id = ?
	`, freshCutoff, userID).Scan(&st.Total, &st.Bookmarked, &st.Fresh)
	if err != nil {
		return nil, fmt.Errorf("failed to compute news stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source, COUNT(*) FROM news_records
		WHERE user_id = ? GROUP BY source
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute source breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, err
		}
		st.BySource[source] = n
	}
	return st, rows.Err()
}

// SentimentProfile captures a user's reading behaviour over a trailing
// window, for search-relevance scoring.
type SentimentProfile struct {
	// AvgSentiment is the mean sentiment score of the windowed articles.
	AvgSentiment float64

	// BookmarkRate is bookmarked/total within the window, in [0, 1].
	BookmarkRate float64

	// Count is the number of articles in the window.
	Count int
}

// UserSentimentProfile computes the rolling profile over articles published
// within the window (e.g. 30 days). Count == 0 means no history.
func (s *Store) UserSentimentProfile(ctx context.Context, userID string, window time.Duration) (*SentimentProfile, error) {
	cutoff := time.Now().UTC().Add(-window).Unix()

	var p SentimentProfile
	var avg, rate *float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(sentiment_score), AVG(is_bookmarked)
		FROM news_records
		WHERE user_id = ? AND published_at >= ?
	`, userID, cutoff).Scan(&p.Count, &avg, &rate)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sentiment profile: %w", err)
	}

	if avg != nil {
		p.AvgSentiment = *avg
	}
	if rate != nil {
		p.BookmarkRate = *rate
	}
	return &p, nil
}
