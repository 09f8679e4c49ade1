package search

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/newssync/models"
)

func TestSuggestions_MergesAllSources(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	recs := []models.NewsRecord{
		{
			ID: "a1", UserID: "u1", Title: "Tech layoffs continue",
			Source: "TechCrunch", PublishedAt: time.Now().UTC().Add(-time.Hour),
			Keywords: []string{"tech", "layoffs"},
		},
		{
			ID: "a2", UserID: "u1", Title: "Markets steady",
			Source: "Reuters", PublishedAt: time.Now().UTC().Add(-2 * time.Hour),
			Keywords: []string{"tech"},
		},
	}
	require.NoError(t, st.UpsertNews(ctx, recs))
	require.NoError(t, st.InsertSearchHistory(ctx, models.SearchHistoryEntry{
		UserID: "u1", Query: "tech news",
	}))

	got, err := e.Suggestions(ctx, "u1", "tech", 10)
	require.NoError(t, err)

	types := map[models.SuggestionType]bool{}
	for _, s := range got {
		types[s.Type] = true
	}
	assert.True(t, types[models.SuggestionHistorical], "history query matches prefix")
	assert.True(t, types[models.SuggestionKeyword], "keyword matches prefix")
	assert.True(t, types[models.SuggestionSource], "TechCrunch matches prefix")
	assert.True(t, types[models.SuggestionTitle], "title contains prefix")

	// historical entries rank above everything else
	assert.Equal(t, models.SuggestionHistorical, got[0].Type)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].RelevanceScore, got[i].RelevanceScore)
	}
}

func TestSuggestions_DedupesCaseInsensitively(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	// "Tech" appears as a keyword and as a prior query; the higher-relevance
	// historical entry must win the collision.
	require.NoError(t, st.UpsertNews(ctx, []models.NewsRecord{{
		ID: "a1", UserID: "u1", Title: "irrelevant",
		Source: "Reuters", PublishedAt: time.Now().UTC(),
		Keywords: []string{"Tech"},
	}}))
	require.NoError(t, st.InsertSearchHistory(ctx, models.SearchHistoryEntry{
		UserID: "u1", Query: "tech",
	}))

	got, err := e.Suggestions(ctx, "u1", "te", 10)
	require.NoError(t, err)

	var techCount int
	for _, s := range got {
		if s.Text == "tech" || s.Text == "Tech" {
			techCount++
			assert.Equal(t, models.SuggestionHistorical, s.Type)
		}
	}
	assert.Equal(t, 1, techCount)
}

func TestSuggestions_EmptyPrefix(t *testing.T) {
	e, _ := setupEngine(t)

	got, err := e.Suggestions(context.Background(), "u1", "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSuggestions_CachedUntilInvalidated(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertNews(ctx, []models.NewsRecord{{
		ID: "a1", UserID: "u1", Title: "t", Source: "Reuters",
		PublishedAt: time.Now().UTC(), Keywords: []string{"economy"},
	}}))

	first, err := e.Suggestions(ctx, "u1", "eco", 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// new data does not appear while the cache entry is live
	require.NoError(t, st.UpsertNews(ctx, []models.NewsRecord{{
		ID: "a2", UserID: "u1", Title: "t2", Source: "Reuters",
		PublishedAt: time.Now().UTC(), Keywords: []string{"ecology"},
	}}))
	cached, err := e.Suggestions(ctx, "u1", "eco", 10)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	e.InvalidateSuggestions()
	refreshed, err := e.Suggestions(ctx, "u1", "eco", 10)
	require.NoError(t, err)
	assert.Len(t, refreshed, 2)
}

func TestSuggestionCache_TTLExpiry(t *testing.T) {
	c := newSuggestionCache(30*time.Minute, 100)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.put("k", []models.SearchSuggestion{{Text: "x"}})

	_, ok := c.get("k")
	assert.True(t, ok)

	now = now.Add(31 * time.Minute)
	_, ok = c.get("k")
	assert.False(t, ok, "entries expire after the TTL")
}

func TestSuggestionCache_EvictsOldestWhenFull(t *testing.T) {
	c := newSuggestionCache(time.Hour, 3)
	now := time.Now()
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		c.put(fmt.Sprintf("k%d", i), nil)
		now = now.Add(time.Minute)
	}
	c.put("k3", nil)

	_, ok := c.get("k0")
	assert.False(t, ok, "oldest entry is evicted")
	for _, k := range []string{"k1", "k2", "k3"} {
		_, ok := c.get(k)
		assert.True(t, ok, k)
	}
}

func TestDebouncer_OnlyLastCallRuns(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Close()

	var ran atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		i := i
		d.Do(func() {
			ran.Add(1)
			last.Store(int32(i))
		})
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(5), last.Load())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), ran.Load(), "earlier calls stay cancelled")
}

func TestDebouncer_CloseCancelsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var ran atomic.Int32
	d.Do(func() { ran.Add(1) })
	d.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, ran.Load())

	d.Do(func() { ran.Add(1) }) // ignored after Close
	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, ran.Load())
}

func TestSuggestions_TypeFilter(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	recs := []models.NewsRecord{
		{
			ID: "a1", UserID: "u1", Title: "Tech layoffs continue",
			Source: "TechCrunch", PublishedAt: time.Now().UTC().Add(-time.Hour),
			Keywords: []string{"tech"},
		},
	}
	require.NoError(t, st.UpsertNews(ctx, recs))
	require.NoError(t, st.InsertSearchHistory(ctx, models.SearchHistoryEntry{
		UserID: "u1", Query: "tech news",
	}))

	got, err := e.Suggestions(ctx, "u1", "tech", 10, models.SuggestionKeyword, models.SuggestionSource)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, s := range got {
		assert.Contains(t, []models.SuggestionType{models.SuggestionKeyword, models.SuggestionSource}, s.Type)
	}

	// the filtered lookup must not poison the unfiltered cache slot
	all, err := e.Suggestions(ctx, "u1", "tech", 10)
	require.NoError(t, err)
	found := map[models.SuggestionType]bool{}
	for _, s := range all {
		found[s.Type] = true
	}
	assert.True(t, found[models.SuggestionHistorical])
}
