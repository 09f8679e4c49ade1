package models

import (
	"encoding/json"
	"strings"
	"time"
)

// ArticlePayload is the wire form of an article as returned by the backend.
// Backend payloads are not strictly typed: Keywords may arrive as a JSON
// array, a comma/space delimited string, or null, and PublishedAt as any of
// a few timestamp layouts. Decode resolves the payload into a NewsRecord
// through a defined fallback ladder instead of leaking dynamic typing into
// the domain layer.
type ArticlePayload struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Summary        string          `json:"summary"`
	Content        string          `json:"content"`
	URL            string          `json:"url"`
	Source         string          `json:"source"`
	PublishedAt    string          `json:"published_at"`
	Keywords       json.RawMessage `json:"keywords"`
	ImageURL       string          `json:"image_url"`
	SentimentScore float64         `json:"sentiment_score"`
	SentimentLabel string          `json:"sentiment_label"`
	IsBookmarked   bool            `json:"is_bookmarked"`
}

var publishedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Decode converts the payload into a NewsRecord scoped to userID.
// CachedAt is left zero; the local store assigns it at write time.
func (p ArticlePayload) Decode(userID string) NewsRecord {
	return NewsRecord{
		ID:             p.ID,
		UserID:         userID,
		Title:          p.Title,
		Summary:        p.Summary,
		Content:        p.Content,
		URL:            p.URL,
		Source:         p.Source,
		PublishedAt:    decodePublishedAt(p.PublishedAt),
		Keywords:       DecodeKeywords(p.Keywords),
		ImageURL:       p.ImageURL,
		SentimentScore: clampSentiment(p.SentimentScore),
		SentimentLabel: decodeSentimentLabel(p.SentimentLabel),
		IsBookmarked:   p.IsBookmarked,
	}
}

// DecodeKeywords resolves a keywords field that may be a JSON string array,
// a single delimited string, or null/absent. The ladder is: structured form,
// then comma-delimited string form, then empty.
func DecodeKeywords(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return trimNonEmpty(list)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return trimNonEmpty(strings.Split(s, ","))
	}

	return nil
}

func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func decodePublishedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func decodeSentimentLabel(s string) SentimentLabel {
	switch SentimentLabel(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func clampSentiment(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
