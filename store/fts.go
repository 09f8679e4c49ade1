package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/newssync/internal/dbx"
	"github.com/dmitrijs2005/newssync/models"
)

// upsertFTSRow mirrors a news record into the FTS5 index (delete + insert,
// FTS5 has no upsert).
func upsertFTSRow(ctx context.Context, tx dbx.DBTX, rec models.NewsRecord) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM news_fts WHERE id = ? AND user_id = ?`, rec.ID, rec.UserID)
	if err != nil {
		return fmt.Errorf("failed to delete fts row: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO news_fts (id, user_id, title, summary, content, keywords)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.UserID, rec.Title, rec.Summary, rec.Content,
		strings.Join(rec.Keywords, " "))
	if err != nil {
		return fmt.Errorf("failed to insert fts row: %w", err)
	}
	return nil
}

// ensureFTSPopulated rebuilds the index when it is empty while the news
// table is not (e.g. after a crash between the table write and the index
// write, or after the index was dropped).
func (s *Store) ensureFTSPopulated(ctx context.Context) error {
	var ftsCount, newsCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news_fts`).Scan(&ftsCount); err != nil {
		return fmt.Errorf("failed to count fts rows: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news_records`).Scan(&newsCount); err != nil {
		return fmt.Errorf("failed to count news rows: %w", err)
	}
	if ftsCount > 0 || newsCount == 0 {
		return nil
	}

	s.log.Info(ctx, "repopulating empty full-text index", "records", newsCount)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO news_fts (id, user_id, title, summary, content, keywords)
		SELECT id, user_id, title, summary, content,
			replace(replace(replace(keywords, '[', ''), ']', ''), '"', '')
		FROM news_records
	`)
	if err != nil {
		return fmt.Errorf("failed to repopulate fts: %w", err)
	}
	return nil
}

// SearchFTS runs a full-text match over title/summary/content/keywords for
// one user. Terms are OR-combined, each quoted as a phrase. Results come
// back best-match first (bm25).
func (s *Store) SearchFTS(ctx context.Context, userID string, terms []string, limit int) ([]models.NewsRecord, error) {
	match := buildMatchQuery(terms)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+newsColumns+` FROM news_records
		WHERE user_id = ?1 AND id IN (
			SELECT id FROM news_fts WHERE news_fts MATCH ?2 AND user_id = ?1
			ORDER BY rank LIMIT ?3
		)
	`, userID, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run fts query: %w", err)
	}
	return collectNews(rows)
}

// SearchLike is the degraded path when the FTS index is unavailable:
// substring containment over the same fields.
func (s *Store) SearchLike(ctx context.Context, userID string, terms []string, limit int) ([]models.NewsRecord, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	var conds []string
	args := []any{userID}
	for _, term := range terms {
		conds = append(conds,
			`(title LIKE ? OR summary LIKE ? OR content LIKE ? OR keywords LIKE ?)`)
		pat := "%" + term + "%"
		args = append(args, pat, pat, pat, pat)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+newsColumns+` FROM news_records
		WHERE user_id = ? AND (`+strings.Join(conds, " OR ")+`)
		ORDER BY published_at DESC LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run like query: %w", err)
	}
	return collectNews(rows)
}

// buildMatchQuery quotes every term as a phrase and ORs them together:
// `"election" OR "results"`. Embedded quotes are stripped, they have no
// meaning inside a phrase.
func buildMatchQuery(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(strings.TrimSpace(t), `"`, "")
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}
