package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/newssync/internal/dbx"
	"github.com/dmitrijs2005/newssync/models"
)

const newsColumns = `id, user_id, title, summary, content, url, source,
	published_at, keywords, image_url, sentiment_score, sentiment_label,
	is_bookmarked, cached_at`

// GetNews returns the record for (id, userID), or ErrNotFound.
func (s *Store) GetNews(ctx context.Context, id, userID string) (*models.NewsRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+newsColumns+` FROM news_records WHERE id = ? AND user_id = ?`,
		id, userID)

	rec, err := scanNews(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get news record: %w", err)
	}
	return rec, nil
}

// UpsertNews writes the records in one transaction, assigning CachedAt and
// maintaining the full-text index. Existing rows with the same (id, user_id)
// are overwritten; the callers decide conflicts before writing.
func (s *Store) UpsertNews(ctx context.Context, records []models.NewsRecord) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for i := range records {
			rec := records[i]
			rec.CachedAt = now
			if err := upsertNewsRow(ctx, tx, rec); err != nil {
				return err
			}
			if err := upsertFTSRow(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertNewsRow(ctx context.Context, tx dbx.DBTX, rec models.NewsRecord) error {
	kw, err := json.Marshal(rec.Keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO news_records (id, user_id, title, summary, content, url,
			source, published_at, keywords, image_url, sentiment_score,
			sentiment_label, is_bookmarked, dirty, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(id, user_id) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			content = excluded.content,
			url = excluded.url,
			source = excluded.source,
			published_at = excluded.published_at,
			keywords = excluded.keywords,
			image_url = excluded.image_url,
			sentiment_score = excluded.sentiment_score,
			sentiment_label = excluded.sentiment_label,
			is_bookmarked = excluded.is_bookmarked,
			cached_at = excluded.cached_at
	`, rec.ID, rec.UserID, rec.Title, rec.Summary, rec.Content, rec.URL,
		rec.Source, rec.PublishedAt.UTC().Unix(), string(kw), rec.ImageURL,
		rec.SentimentScore, string(rec.SentimentLabel),
		boolToInt(rec.IsBookmarked), rec.CachedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert news record: %w", err)
	}
	return nil
}

// SetBookmarked flips the bookmark flag and marks the row dirty so a future
// upload phase can push the mutation upstream.
func (s *Store) SetBookmarked(ctx context.Context, id, userID string, bookmarked bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE news_records SET is_bookmarked = ?, dirty = 1 WHERE id = ? AND user_id = ?`,
		boolToInt(bookmarked), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update bookmark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSentiment applies a local sentiment correction and marks the row
// dirty.
func (s *Store) UpdateSentiment(ctx context.Context, id, userID string, score float64, label models.SentimentLabel) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE news_records SET sentiment_score = ?, sentiment_label = ?, dirty = 1
		 WHERE id = ? AND user_id = ?`,
		score, string(label), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update sentiment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// PendingMutations lists local changes not yet pushed upstream, for the
// sync manager's upload phase.
func (s *Store) PendingMutations(ctx context.Context, userID string) ([]models.Mutation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, is_bookmarked, sentiment_score FROM news_records
		 WHERE user_id = ? AND dirty = 1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending mutations: %w", err)
	}
	defer rows.Close()

	var muts []models.Mutation
	for rows.Next() {
		var id string
		var bookmarked int
		var score float64
		if err := rows.Scan(&id, &bookmarked, &score); err != nil {
			return nil, err
		}
		muts = append(muts,
			models.Mutation{RecordID: id, UserID: userID, Field: "is_bookmarked", Value: bookmarked == 1},
			models.Mutation{RecordID: id, UserID: userID, Field: "sentiment_score", Value: score},
		)
	}
	return muts, rows.Err()
}

// MarkMutationsPushed clears the dirty flag after a successful upload phase.
func (s *Store) MarkMutationsPushed(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE news_records SET dirty = 0 WHERE user_id = ? AND dirty = 1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear dirty flags: %w", err)
	}
	return nil
}

// RecentByUser lists the user's cached records, newest published first.
func (s *Store) RecentByUser(ctx context.Context, userID string, limit int) ([]models.NewsRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+newsColumns+` FROM news_records
		 WHERE user_id = ? ORDER BY published_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent news: %w", err)
	}
	return collectNews(rows)
}

// ByDateRange lists the user's records published inside [from, to],
// newest first. Served by the (user_id, published_at) index.
func (s *Store) ByDateRange(ctx context.Context, userID string, from, to time.Time) ([]models.NewsRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+newsColumns+` FROM news_records
		 WHERE user_id = ? AND published_at >= ? AND published_at <= ?
		 ORDER BY published_at DESC`,
		userID, from.UTC().Unix(), to.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query date range: %w", err)
	}
	return collectNews(rows)
}

// Bookmarked lists the user's bookmarked records, newest first.
func (s *Store) Bookmarked(ctx context.Context, userID string) ([]models.NewsRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+newsColumns+` FROM news_records
		 WHERE user_id = ? AND is_bookmarked = 1 ORDER BY published_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return collectNews(rows)
}

// CleanupNews enforces the retention policy per user: rows older than
// maxAge go first, then the oldest rows beyond keepCount. Bookmarked rows
// are kept regardless of age. Returns the number of deleted rows.
func (s *Store) CleanupNews(ctx context.Context, userID string, keepCount int, maxAge time.Duration) (int64, error) {
	var deleted int64

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cutoff := time.Now().UTC().Add(-maxAge).Unix()

		res, err := tx.ExecContext(ctx, `
			DELETE FROM news_records
			WHERE user_id = ? AND cached_at < ? AND is_bookmarked = 0
		`, userID, cutoff)
		if err != nil {
			return fmt.Errorf("failed to delete aged rows: %w", err)
		}
		n, _ := res.RowsAffected()
		deleted += n

		res, err = tx.ExecContext(ctx, `
			DELETE FROM news_records
			WHERE user_id = ? AND is_bookmarked = 0 AND id NOT IN (
				SELECT id FROM news_records WHERE user_id = ?
				ORDER BY cached_at DESC LIMIT ?
			)
		`, userID, userID, keepCount)
		if err != nil {
			return fmt.Errorf("failed to trim to keep-count: %w", err)
		}
		n, _ = res.RowsAffected()
		deleted += n

		// Drop index rows that no longer have a backing record.
		_, err = tx.ExecContext(ctx, `
			DELETE FROM news_fts
			WHERE user_id = ? AND id NOT IN (
				SELECT id FROM news_records WHERE user_id = ?
			)
		`, userID, userID)
		if err != nil {
			return fmt.Errorf("failed to prune fts rows: %w", err)
		}
		return nil
	})
	return deleted, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNews(row rowScanner) (*models.NewsRecord, error) {
	var rec models.NewsRecord
	var published, cached int64
	var bookmarked int
	var keywords, label string

	err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Summary,
		&rec.Content, &rec.URL, &rec.Source, &published, &keywords,
		&rec.ImageURL, &rec.SentimentScore, &label, &bookmarked, &cached)
	if err != nil {
		return nil, err
	}

	rec.PublishedAt = time.Unix(published, 0).UTC()
	rec.CachedAt = time.Unix(cached, 0).UTC()
	rec.IsBookmarked = bookmarked == 1
	rec.SentimentLabel = models.SentimentLabel(label)
	if keywords != "" && keywords != "null" {
		_ = json.Unmarshal([]byte(keywords), &rec.Keywords)
	}
	return &rec, nil
}

func collectNews(rows *sql.Rows) ([]models.NewsRecord, error) {
	defer rows.Close()

	var result []models.NewsRecord
	for rows.Next() {
		rec, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news row: %w", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
