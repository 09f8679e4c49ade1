package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/newssync/models"
)

// GetSyncMetadata returns the bookkeeping row for (table, direction), or
// ErrNotFound before the first sync attempt.
func (s *Store) GetSyncMetadata(ctx context.Context, table string, direction models.SyncDirection) (*models.SyncMetadata, error) {
	var meta models.SyncMetadata
	var lastSync int64
	var dir, status string

	err := s.db.QueryRowContext(ctx, `
		SELECT table_name, direction, last_sync_time, status, record_count,
			error_message, details
		FROM sync_metadata WHERE table_name = ? AND direction = ?
	`, table, string(direction)).Scan(
		&meta.TableName, &dir, &lastSync, &status,
		&meta.RecordCount, &meta.ErrorMessage, &meta.Details)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync metadata: %w", err)
	}

	meta.Direction = models.SyncDirection(dir)
	meta.Status = models.SyncStatus(status)
	if lastSync > 0 {
		meta.LastSyncTime = time.Unix(lastSync, 0).UTC()
	}
	return &meta, nil
}

// UpsertSyncMetadata records the outcome of a sync attempt. Last write wins.
func (s *Store) UpsertSyncMetadata(ctx context.Context, meta models.SyncMetadata) error {
	var lastSync int64
	if !meta.LastSyncTime.IsZero() {
		lastSync = meta.LastSyncTime.UTC().Unix()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_metadata (table_name, direction, last_sync_time,
			status, record_count, error_message, details)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(table_name, direction) DO UPDATE SET
			last_sync_time = excluded.last_sync_time,
			status = excluded.status,
			record_count = excluded.record_count,
			error_message = excluded.error_message,
			details = excluded.details
	`, meta.TableName, string(meta.Direction), lastSync, string(meta.Status),
		meta.RecordCount, meta.ErrorMessage, meta.Details)
	if err != nil {
		return fmt.Errorf("failed to upsert sync metadata: %w", err)
	}
	return nil
}

// PruneSyncMetadata removes bookkeeping rows untouched since the cutoff.
func (s *Store) PruneSyncMetadata(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sync_metadata WHERE last_sync_time < ?`,
		olderThan.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync metadata: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
