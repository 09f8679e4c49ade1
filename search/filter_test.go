package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/newssync/models"
)

func seedFilterFixtures(t *testing.T) (*Engine, context.Context) {
	t.Helper()
	e, _ := setupEngine(t)
	ctx := context.Background()

	now := time.Now().UTC()
	recs := []models.NewsRecord{
		{
			ID: "a1", UserID: "u1", Title: "Markets rally on tech earnings",
			Content: "Tech stocks surged.", Source: "Reuters",
			PublishedAt: now.Add(-1 * time.Hour), SentimentScore: 0.7,
			Keywords: []string{"markets", "tech"}, IsBookmarked: true,
		},
		{
			ID: "a2", UserID: "u1", Title: "Storm warning issued for coast",
			Content: "Heavy rain expected.", Source: "BBC",
			PublishedAt: now.Add(-24 * time.Hour), SentimentScore: -0.6,
			Keywords: []string{"weather", "storm"},
		},
		{
			ID: "a3", UserID: "u1", Title: "Markets dip amid uncertainty",
			Content: "Investors retreated.", Source: "Reuters",
			PublishedAt: now.Add(-48 * time.Hour), SentimentScore: -0.2,
			Keywords: []string{"markets"},
		},
		{
			ID: "a4", UserID: "u1", Title: "New exhibit opens downtown",
			Content: "The gallery unveiled new works.", Source: "CNN",
			PublishedAt: now.Add(-7 * 24 * time.Hour), SentimentScore: 0.3,
			Keywords: []string{"culture"},
		},
	}
	require.NoError(t, e.store.UpsertNews(ctx, recs))
	return e, ctx
}

func TestFilterByCriteria_SourceAllowlist(t *testing.T) {
	e, ctx := seedFilterFixtures(t)

	res, err := e.FilterByCriteria(ctx, "u1", models.SearchFilter{
		Sources: []string{"reuters"},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	for _, r := range res.Records {
		assert.Equal(t, "Reuters", r.Source)
	}
	assert.Contains(t, res.IndicesUsed, "source_allowlist")
}

func TestFilterByCriteria_DateRangeUsesIndex(t *testing.T) {
	e, ctx := seedFilterFixtures(t)
	now := time.Now().UTC()

	res, err := e.FilterByCriteria(ctx, "u1", models.SearchFilter{
		From: now.Add(-30 * time.Hour),
		To:   now,
	})
	require.NoError(t, err)
	assert.Len(t, res.Records, 2) // a1, a2
	assert.Contains(t, res.IndicesUsed, "idx_news_user_published")
}

func TestFilterByCriteria_SentimentRange(t *testing.T) {
	e, ctx := seedFilterFixtures(t)

	res, err := e.FilterByCriteria(ctx, "u1", models.SearchFilter{
		SentimentSet: true,
		MinSentiment: 0.0,
		MaxSentiment: 1.0,
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 2) // a1 (0.7), a4 (0.3)
	for _, r := range res.Records {
		assert.GreaterOrEqual(t, r.SentimentScore, 0.0)
	}
}

func TestFilterByCriteria_KeywordsRequireAll(t *testing.T) {
	e, ctx := seedFilterFixtures(t)

	res, err := e.FilterByCriteria(ctx, "u1", models.SearchFilter{
		Keywords: []string{"markets", "tech"},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "a1", res.Records[0].ID)
}

func TestFilterByCriteria_BookmarkState(t *testing.T) {
	e, ctx := seedFilterFixtures(t)

	res, err := e.FilterByCriteria(ctx, "u1", models.SearchFilter{
		BookmarkedSet:  true,
		BookmarkedOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "a1", res.Records[0].ID)
}

func TestFilterByCriteria_CombinedCriteria(t *testing.T) {
	e, ctx := seedFilterFixtures(t)

	res, err := e.FilterByCriteria(ctx, "u1", models.SearchFilter{
		Query:        "markets",
		Sources:      []string{"Reuters"},
		SentimentSet: true,
		MinSentiment: -1.0,
		MaxSentiment: 0.0,
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "a3", res.Records[0].ID)
	assert.Equal(t,
		[]string{"user_recent_scan", "source_allowlist", "sentiment_range", "text_contains"},
		res.IndicesUsed)
}

func TestFilterByCriteria_SortAndLimit(t *testing.T) {
	e, ctx := seedFilterFixtures(t)

	res, err := e.FilterByCriteria(ctx, "u1", models.SearchFilter{
		SortBy:     models.SortBySentiment,
		Descending: true,
		Limit:      2,
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "a1", res.Records[0].ID) // 0.7
	assert.Equal(t, "a4", res.Records[1].ID) // 0.3

	asc, err := e.FilterByCriteria(ctx, "u1", models.SearchFilter{
		SortBy: models.SortByTitle,
	})
	require.NoError(t, err)
	for i := 1; i < len(asc.Records); i++ {
		assert.LessOrEqual(t, asc.Records[i-1].Title, asc.Records[i].Title)
	}
}

func TestFilterByCriteria_NoCriteriaReturnsRecent(t *testing.T) {
	e, ctx := seedFilterFixtures(t)

	res, err := e.FilterByCriteria(ctx, "u1", models.SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, res.Records, 4)
	assert.Equal(t, []string{"user_recent_scan"}, res.IndicesUsed)
}
