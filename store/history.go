package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/newssync/internal/dbx"
	"github.com/dmitrijs2005/newssync/models"
)

// InsertSearchHistory records one completed search. A zero entry ID gets a
// generated uuid; a zero Timestamp gets the current time.
func (s *Store) InsertSearchHistory(ctx context.Context, entry models.SearchHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	filter, err := json.Marshal(entry.Filter)
	if err != nil {
		return fmt.Errorf("failed to encode filter: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO search_history (id, user_id, query, filter, searched_at,
			result_count, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, entry.Query, string(filter),
		entry.Timestamp.UTC().Unix(), entry.ResultCount,
		entry.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert search history: %w", err)
	}
	return nil
}

// EnforceHistoryRetention bounds one user's history by age and by count.
// Called opportunistically after each write.
func (s *Store) EnforceHistoryRetention(ctx context.Context, userID string, maxEntries int, maxAge time.Duration) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cutoff := time.Now().UTC().Add(-maxAge).Unix()
		_, err := tx.ExecContext(ctx,
			`DELETE FROM search_history WHERE user_id = ? AND searched_at < ?`,
			userID, cutoff)
		if err != nil {
			return fmt.Errorf("failed to delete aged history: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM search_history
			WHERE user_id = ? AND id NOT IN (
				SELECT id FROM search_history WHERE user_id = ?
				ORDER BY searched_at DESC, id LIMIT ?
			)
		`, userID, userID, maxEntries)
		if err != nil {
			return fmt.Errorf("failed to trim history to count: %w", err)
		}
		return nil
	})
}

// SearchHistory lists a user's entries newest-first, optionally bounded to
// [from, to] (zero times mean unbounded) and to limit rows (0 = all).
func (s *Store) SearchHistory(ctx context.Context, userID string, from, to time.Time, limit int) ([]models.SearchHistoryEntry, error) {
	q := `SELECT id, user_id, query, filter, searched_at, result_count, duration_ms
		FROM search_history WHERE user_id = ?`
	args := []any{userID}

	if !from.IsZero() {
		q += ` AND searched_at >= ?`
		args = append(args, from.UTC().Unix())
	}
	if !to.IsZero() {
		q += ` AND searched_at <= ?`
		args = append(args, to.UTC().Unix())
	}
	q += ` ORDER BY searched_at DESC, id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	var result []models.SearchHistoryEntry
	for rows.Next() {
		var e models.SearchHistoryEntry
		var filter string
		var searchedAt, durationMs int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Query, &filter,
			&searchedAt, &e.ResultCount, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Timestamp = time.Unix(searchedAt, 0).UTC()
		e.Duration = time.Duration(durationMs) * time.Millisecond
		_ = json.Unmarshal([]byte(filter), &e.Filter)
		result = append(result, e)
	}
	return result, rows.Err()
}

// ClearSearchHistory removes all of a user's history.
func (s *Store) ClearSearchHistory(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM search_history WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear search history: %w", err)
	}
	return nil
}
