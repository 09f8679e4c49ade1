// Package models defines the data types shared by the news sync, cache and
// search layers: cached articles, sync bookkeeping rows, search history and
// the ephemeral search result/suggestion types.
package models

import "time"

// SentimentLabel classifies an article's overall sentiment.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// NewsRecord is a locally cached article. Records are scoped per user:
// (ID, UserID) is the identity. CachedAt is assigned at local-store write
// time and is never taken from a remote payload.
type NewsRecord struct {
	// ID is the source-provided article identifier.
	ID string

	// UserID scopes the record to its owner ("" for the guest scope).
	UserID string

	Title   string
	Summary string
	Content string
	URL     string

	// Source is the publisher name (e.g. "Reuters").
	Source string

	// PublishedAt is the publication time in UTC.
	PublishedAt time.Time

	// Keywords is the ordered keyword list attached by the backend.
	Keywords []string

	// ImageURL is optional and may be empty.
	ImageURL string

	// SentimentScore is in [-1, 1].
	SentimentScore float64
	SentimentLabel SentimentLabel

	// IsBookmarked is a local user mutation that must survive sync merges.
	IsBookmarked bool

	// CachedAt is the local ingestion time in UTC.
	CachedAt time.Time
}
