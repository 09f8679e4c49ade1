package models

import "time"

// SortField names a sortable NewsRecord attribute for filtered queries.
type SortField string

const (
	SortByPublishedAt SortField = "publishedAt"
	SortBySentiment   SortField = "sentimentScore"
	SortByTitle       SortField = "title"
	SortBySource      SortField = "source"
)

// SearchFilter is a multi-criteria filter over cached articles. Zero values
// mean "not constrained".
type SearchFilter struct {
	// Query is a free-text substring match over title/summary/content.
	Query string `json:"query,omitempty"`

	// Sources is an allow-list of publisher names (case-insensitive).
	Sources []string `json:"sources,omitempty"`

	// From/To bound PublishedAt. Both must be set for the date index
	// to be used.
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`

	// MinSentiment/MaxSentiment bound SentimentScore when SentimentSet.
	SentimentSet bool    `json:"sentiment_set,omitempty"`
	MinSentiment float64 `json:"min_sentiment,omitempty"`
	MaxSentiment float64 `json:"max_sentiment,omitempty"`

	// Keywords requires every listed keyword to be present on the record.
	Keywords []string `json:"keywords,omitempty"`

	// BookmarkedOnly constrains to the given bookmark state when set.
	BookmarkedSet  bool `json:"bookmarked_set,omitempty"`
	BookmarkedOnly bool `json:"bookmarked_only,omitempty"`

	SortBy     SortField `json:"sort_by,omitempty"`
	Descending bool      `json:"descending,omitempty"`
	Limit      int       `json:"limit,omitempty"`
}

// ScoredResult wraps a NewsRecord with its combined relevance score and the
// per-component breakdown. Never persisted.
type ScoredResult struct {
	Record NewsRecord

	// Score is the weighted combination, clamped to [0, 1].
	Score float64

	// Components holds the named component scores that produced Score:
	// tfidf, recency, sourceAuthority, engagement, sentimentAlignment.
	Components map[string]float64
}

// SuggestionType classifies where a search suggestion came from.
type SuggestionType string

const (
	SuggestionKeyword    SuggestionType = "keyword"
	SuggestionSource     SuggestionType = "source"
	SuggestionTitle      SuggestionType = "title"
	SuggestionHistorical SuggestionType = "historical"
)

// SearchSuggestion is an ephemeral typeahead candidate.
type SearchSuggestion struct {
	Text           string
	Type           SuggestionType
	Frequency      int
	RelevanceScore float64
}

// SearchHistoryEntry records one completed search for a user.
type SearchHistoryEntry struct {
	ID          string
	UserID      string
	Query       string
	Filter      SearchFilter
	Timestamp   time.Time
	ResultCount int
	Duration    time.Duration
}

// SearchAnalytics aggregates a user's recorded searches. Zero value is the
// documented default returned on storage failure.
type SearchAnalytics struct {
	TotalSearches  int
	AvgResultCount float64
	AvgDuration    time.Duration
	UniqueQueries  int

	// MostFrequentQueries holds up to ten queries, most frequent first.
	MostFrequentQueries []QueryFrequency

	// SearchesByHour is a 24-bucket hour-of-day histogram.
	SearchesByHour [24]int
}

// QueryFrequency pairs a query with how often it was issued.
type QueryFrequency struct {
	Query     string
	Frequency int
}
