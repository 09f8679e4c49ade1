package models

import "time"

// SyncDirection tells which way a sync pass moved data.
type SyncDirection string

const (
	SyncDownload SyncDirection = "download"
	SyncUpload   SyncDirection = "upload"
)

// SyncStatus is the sync manager state machine value.
type SyncStatus string

const (
	SyncIdle      SyncStatus = "idle"
	SyncSyncing   SyncStatus = "syncing"
	SyncCompleted SyncStatus = "completed"
	SyncFailed    SyncStatus = "failed"
)

// SyncMetadata is the bookkeeping row for one (table, direction) pair.
// Exactly one live row exists per pair; writes are last-write-wins upserts.
type SyncMetadata struct {
	TableName    string
	Direction    SyncDirection
	LastSyncTime time.Time
	Status       SyncStatus
	RecordCount  int

	// ErrorMessage holds the last failure text, empty on success.
	ErrorMessage string

	// Details is an opaque JSON blob: downloaded/uploaded counts,
	// incremental-vs-full flag, whatever the manager wants to keep.
	Details []byte
}

// Mutation is one local change awaiting upload to the backend.
type Mutation struct {
	RecordID string `json:"record_id"`
	UserID   string `json:"user_id"`

	// Field names the mutated attribute ("is_bookmarked",
	// "sentiment_score").
	Field string `json:"field"`
	Value any    `json:"value"`
}

// ConflictStrategy selects how a remote record is reconciled against an
// existing local record sharing its id.
type ConflictStrategy string

const (
	// ServerWins overwrites local state with the remote record. Default.
	ServerWins ConflictStrategy = "server_wins"

	// ClientWins discards the remote update entirely.
	ClientWins ConflictStrategy = "client_wins"

	// Merge takes remote content fields but preserves local
	// user-interaction state (bookmark flag). Experimental.
	Merge ConflictStrategy = "merge"
)
