// Package search is the relevance-ranked local search engine: hybrid
// full-text retrieval with TF-IDF plus multi-signal scoring, multi-criteria
// filtering, typeahead suggestions and search-history analytics, all
// computed over the local store, never the network.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dmitrijs2005/newssync/internal/logging"
	"github.com/dmitrijs2005/newssync/models"
	"github.com/dmitrijs2005/newssync/store"
)

// Config tunes the engine. Zero fields take defaults.
type Config struct {
	// CandidateMultiplier widens the retrieval set: limit*multiplier
	// candidates are fetched to survive downstream threshold filtering.
	CandidateMultiplier int

	// RecencyHalfLife is the exponential-decay window for the recency
	// component.
	RecencyHalfLife time.Duration

	// ProfileWindow is the trailing window for the user sentiment
	// profile.
	ProfileWindow time.Duration

	HistoryMaxEntries int
	HistoryMaxAge     time.Duration

	SuggestionTTL     time.Duration
	SuggestionMaxKeys int
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = 3
	}
	if c.RecencyHalfLife <= 0 {
		c.RecencyHalfLife = 30 * 24 * time.Hour
	}
	if c.ProfileWindow <= 0 {
		c.ProfileWindow = 30 * 24 * time.Hour
	}
	if c.HistoryMaxEntries <= 0 {
		c.HistoryMaxEntries = 1000
	}
	if c.HistoryMaxAge <= 0 {
		c.HistoryMaxAge = 90 * 24 * time.Hour
	}
	if c.SuggestionTTL <= 0 {
		c.SuggestionTTL = 30 * time.Minute
	}
	if c.SuggestionMaxKeys <= 0 {
		c.SuggestionMaxKeys = 100
	}
}

// Component score weights. They sum to 1.0; the combination normalizes by
// the weights actually present so partial scoring stays in [0, 1].
const (
	weightTFIDF     = 0.40
	weightRecency   = 0.25
	weightAuthority = 0.20
	weightEngage    = 0.10
	weightSentiment = 0.05
)

// Results is one ranked search response.
type Results struct {
	Results []models.ScoredResult

	// TotalCandidates is the size of the retrieval set before threshold
	// filtering and truncation.
	TotalCandidates int

	Duration time.Duration
}

// Engine computes ranked results over the local store.
type Engine struct {
	store *store.Store
	log   logging.Logger
	cfg   Config

	suggestions *suggestionCache
	now         func() time.Time
}

// NewEngine constructs an Engine over the given store.
func NewEngine(st *store.Store, cfg Config, log logging.Logger) *Engine {
	cfg.Defaults()
	if log == nil {
		log = logging.Nop()
	}
	return &Engine{
		store:       st,
		log:         log.With("component", "search"),
		cfg:         cfg,
		suggestions: newSuggestionCache(cfg.SuggestionTTL, cfg.SuggestionMaxKeys),
		now:         time.Now,
	}
}

// SemanticSearch ranks the user's cached articles against the query.
// Candidates come from the full-text index (falling back to substring
// containment when the index is unavailable), are filtered by the TF-IDF
// threshold, scored on five signals and returned best-first, truncated to
// limit. The completed search is recorded to history asynchronously.
func (e *Engine) SemanticSearch(ctx context.Context, query, userID string, limit int, threshold float64) (*Results, error) {
	started := e.now()
	if limit <= 0 {
		limit = 20
	}

	terms := Tokenize(query)
	if len(terms) == 0 {
		return &Results{Duration: e.now().Sub(started)}, nil
	}

	candidates, err := e.retrieveCandidates(ctx, userID, terms, limit*e.cfg.CandidateMultiplier)
	if err != nil {
		return nil, fmt.Errorf("retrieving candidates: %w", err)
	}

	df := documentFrequencies(candidates, terms)
	profile := e.sentimentProfile(ctx, userID)

	scored := make([]models.ScoredResult, 0, len(candidates))
	for i := range candidates {
		rec := candidates[i]

		tfidf := e.tfidfScore(rec, terms, df, len(candidates))
		if tfidf < threshold {
			continue
		}

		components := map[string]float64{
			"tfidf":              tfidf,
			"recency":            e.recencyScore(rec),
			"sourceAuthority":    sourceAuthority(rec.Source),
			"engagement":         engagementScore(rec),
			"sentimentAlignment": sentimentAlignment(rec, profile),
		}

		scored = append(scored, models.ScoredResult{
			Record:     rec,
			Score:      combineScores(components),
			Components: components,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	res := &Results{
		Results:         scored,
		TotalCandidates: len(candidates),
		Duration:        e.now().Sub(started),
	}

	searchesTotal.Inc()
	searchDuration.Observe(res.Duration.Seconds())

	// Fire-and-forget: history recording never blocks or fails a search.
	go e.RecordSearch(context.Background(), models.SearchHistoryEntry{
		UserID:      userID,
		Query:       query,
		ResultCount: len(scored),
		Duration:    res.Duration,
	})

	return res, nil
}

// retrieveCandidates prefers the full-text index and degrades to substring
// containment when the index fails. Only both failing propagates.
func (e *Engine) retrieveCandidates(ctx context.Context, userID string, terms []string, limit int) ([]models.NewsRecord, error) {
	recs, err := e.store.SearchFTS(ctx, userID, terms, limit)
	if err == nil {
		return recs, nil
	}
	e.log.Warn(ctx, "full-text search unavailable, using substring fallback", "error", err)
	searchFallbacks.Inc()
	return e.store.SearchLike(ctx, userID, terms, limit)
}

// sentimentProfile loads the user's rolling profile; nil means "no history"
// and yields the neutral default downstream. Never fails the search.
func (e *Engine) sentimentProfile(ctx context.Context, userID string) *store.SentimentProfile {
	p, err := e.store.UserSentimentProfile(ctx, userID, e.cfg.ProfileWindow)
	if err != nil {
		e.log.Warn(ctx, "sentiment profile unavailable", "error", err)
		return nil
	}
	if p.Count == 0 {
		return nil
	}
	return p
}

// documentFrequencies counts, per query term, the candidates containing it.
// The denominator of the IDF is the candidate set, not the full corpus.
func documentFrequencies(candidates []models.NewsRecord, terms []string) map[string]int {
	df := make(map[string]int, len(terms))
	for i := range candidates {
		tokens := recordTokenSet(candidates[i])
		for _, term := range terms {
			if tokens[term] > 0 {
				df[term]++
			}
		}
	}
	return df
}

// tfidfScore sums tf*idf over the query terms, normalized by the term
// count and capped at 1.
func (e *Engine) tfidfScore(rec models.NewsRecord, terms []string, df map[string]int, candidateCount int) float64 {
	tokens := recordTokens(rec)
	if len(tokens) == 0 {
		return 0
	}
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}

	var score float64
	for _, term := range terms {
		tf := float64(counts[term]) / float64(len(tokens))
		idf := math.Log(float64(candidateCount)/float64(1+df[term])) + 1
		if idf < 0 {
			idf = 0
		}
		score += tf * idf
	}
	score /= float64(len(terms))
	return clamp01(score * 10) // scale token-ratio magnitudes into [0,1]
}

func (e *Engine) recencyScore(rec models.NewsRecord) float64 {
	if rec.PublishedAt.IsZero() {
		return 0
	}
	days := e.now().Sub(rec.PublishedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	halfLifeDays := e.cfg.RecencyHalfLife.Hours() / 24
	return math.Exp(-days / halfLifeDays)
}

// engagementScore rewards user interaction signals: bookmark state, strong
// sentiment and keyword richness.
func engagementScore(rec models.NewsRecord) float64 {
	var score float64
	if rec.IsBookmarked {
		score += 0.4
	}
	score += math.Abs(rec.SentimentScore) * 0.2
	score += math.Min(float64(len(rec.Keywords))/10, 0.3)
	return math.Min(score, 1.0)
}

// sentimentAlignment compares article sentiment to the user's rolling
// average, boosted by bookmark rate. 0.5 is the neutral default when no
// profile exists. Never panics, never errors.
func sentimentAlignment(rec models.NewsRecord, profile *store.SentimentProfile) float64 {
	if profile == nil {
		return 0.5
	}
	delta := math.Abs(rec.SentimentScore - profile.AvgSentiment)
	alignment := 1 - math.Min(delta/2, 1)
	boost := math.Min(profile.BookmarkRate, 1) * 0.2
	return math.Min(alignment+boost, 1.0)
}

// combineScores applies the fixed weights, normalizing by the weights of
// the components actually present, and clamps to [0, 1].
func combineScores(components map[string]float64) float64 {
	weights := map[string]float64{
		"tfidf":              weightTFIDF,
		"recency":            weightRecency,
		"sourceAuthority":    weightAuthority,
		"engagement":         weightEngage,
		"sentimentAlignment": weightSentiment,
	}

	var sum, total float64
	for name, w := range weights {
		v, ok := components[name]
		if !ok {
			continue
		}
		sum += v * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return clamp01(sum / total)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
