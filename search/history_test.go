package search

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/newssync/models"
)

func TestRecordSearchAndHistory(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()

	e.RecordSearch(ctx, models.SearchHistoryEntry{
		UserID: "u1", Query: "climate", ResultCount: 4,
		Duration: 12 * time.Millisecond,
	})
	e.RecordSearch(ctx, models.SearchHistoryEntry{
		UserID: "u1", Query: "economy", ResultCount: 2,
		Duration: 8 * time.Millisecond,
	})

	got, err := e.History(ctx, "u1", time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "economy", got[0].Query, "newest first")
	assert.Equal(t, 4, got[1].ResultCount)
}

func TestSemanticSearch_RecordsHistoryAsynchronously(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertNews(ctx, []models.NewsRecord{
		article("a1", "u1", "Climate summit underway", "climate talks"),
	}))

	_, err := e.SemanticSearch(ctx, "climate", "u1", 10, 0)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		got, err := e.History(ctx, "u1", time.Time{}, time.Time{}, 0)
		return err == nil && len(got) == 1 && got[0].Query == "climate"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestAnalytics_Aggregates(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()

	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	entries := []models.SearchHistoryEntry{
		{UserID: "u1", Query: "climate", ResultCount: 10, Duration: 20 * time.Millisecond, Timestamp: at},
		{UserID: "u1", Query: "Climate", ResultCount: 6, Duration: 10 * time.Millisecond, Timestamp: at.Add(time.Hour)},
		{UserID: "u1", Query: "economy", ResultCount: 2, Duration: 30 * time.Millisecond, Timestamp: at.Add(5 * time.Hour)},
	}
	for _, entry := range entries {
		e.RecordSearch(ctx, entry)
	}

	a := e.Analytics(ctx, "u1", time.Time{}, time.Time{})
	assert.Equal(t, 3, a.TotalSearches)
	assert.InDelta(t, 6.0, a.AvgResultCount, 1e-9)
	assert.Equal(t, 20*time.Millisecond, a.AvgDuration)
	assert.Equal(t, 2, a.UniqueQueries, "query casing folds")

	require.NotEmpty(t, a.MostFrequentQueries)
	assert.Equal(t, 2, a.MostFrequentQueries[0].Frequency)
	assert.True(t, strings.EqualFold("climate", a.MostFrequentQueries[0].Query))

	assert.Equal(t, 1, a.SearchesByHour[9])
	assert.Equal(t, 1, a.SearchesByHour[10])
	assert.Equal(t, 1, a.SearchesByHour[14])
}

func TestAnalytics_RepeatedQuery(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		e.RecordSearch(ctx, models.SearchHistoryEntry{
			UserID: "u1", Query: "economy", ResultCount: 4,
			Duration: 15 * time.Millisecond, Timestamp: at.Add(time.Duration(i) * time.Minute),
		})
	}

	a := e.Analytics(ctx, "u1", time.Time{}, time.Time{})
	assert.Equal(t, 3, a.TotalSearches)
	assert.Equal(t, 1, a.UniqueQueries)
	require.Len(t, a.MostFrequentQueries, 1)
	assert.Equal(t, "economy", a.MostFrequentQueries[0].Query)
	assert.Equal(t, 3, a.MostFrequentQueries[0].Frequency)
	assert.Equal(t, 3, a.SearchesByHour[12])
}

func TestAnalytics_WindowBounds(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC().Add(-time.Hour)
	e.RecordSearch(ctx, models.SearchHistoryEntry{UserID: "u1", Query: "old", Timestamp: old})
	e.RecordSearch(ctx, models.SearchHistoryEntry{UserID: "u1", Query: "new", Timestamp: recent})

	a := e.Analytics(ctx, "u1", time.Now().UTC().Add(-24*time.Hour), time.Now().UTC())
	assert.Equal(t, 1, a.TotalSearches)
	assert.Equal(t, "new", a.MostFrequentQueries[0].Query)
}

func TestAnalytics_ZeroValueOnStorageFailure(t *testing.T) {
	e, st := setupEngine(t)
	require.NoError(t, st.Close())

	a := e.Analytics(context.Background(), "u1", time.Time{}, time.Time{})
	assert.Equal(t, models.SearchAnalytics{}, a)
}

func TestAnalytics_EmptyHistory(t *testing.T) {
	e, _ := setupEngine(t)

	a := e.Analytics(context.Background(), "u1", time.Time{}, time.Time{})
	assert.Zero(t, a.TotalSearches)
	assert.Zero(t, a.AvgResultCount)
	assert.Zero(t, a.AvgDuration)
	assert.Empty(t, a.MostFrequentQueries)
}

func TestClearHistory(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()

	e.RecordSearch(ctx, models.SearchHistoryEntry{UserID: "u1", Query: "q"})
	e.RecordSearch(ctx, models.SearchHistoryEntry{UserID: "u2", Query: "q"})

	require.NoError(t, e.ClearHistory(ctx, "u1"))

	got, err := e.History(ctx, "u1", time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	other, err := e.History(ctx, "u2", time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, other, 1, "other users are untouched")
}
