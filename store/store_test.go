package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/newssync/internal/logging"
	"github.com/dmitrijs2005/newssync/models"
)

var dbSeq atomic.Int64

func setupStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:storetest_%d?mode=memory&cache=shared", dbSeq.Add(1))
	s, err := Open(context.Background(), dsn, logging.Nop())
	require.NoError(t, err)
	s.db.SetMaxOpenConns(4)
	s.db.SetMaxIdleConns(4)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecord(id, userID, title string) models.NewsRecord {
	return models.NewsRecord{
		ID:             id,
		UserID:         userID,
		Title:          title,
		Summary:        "summary of " + title,
		Content:        "content of " + title,
		URL:            "https://example.com/" + id,
		Source:         "Reuters",
		PublishedAt:    time.Now().UTC().Add(-time.Hour),
		Keywords:       []string{"news", title},
		SentimentScore: 0.1,
		SentimentLabel: models.SentimentNeutral,
	}
}

func TestUpsertAndGetNews(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec := testRecord("a1", "u1", "Election results are in")
	require.NoError(t, s.UpsertNews(ctx, []models.NewsRecord{rec}))

	got, err := s.GetNews(ctx, "a1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Election results are in", got.Title)
	assert.Equal(t, []string{"news", "Election results are in"}, got.Keywords)
	assert.False(t, got.CachedAt.IsZero(), "CachedAt is assigned at write time")

	// same id, different user scope
	_, err = s.GetNews(ctx, "a1", "u2")
	assert.ErrorIs(t, err, ErrNotFound)

	// overwrite
	rec.Title = "updated"
	require.NoError(t, s.UpsertNews(ctx, []models.NewsRecord{rec}))
	got, err = s.GetNews(ctx, "a1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Title)
}

func TestSetBookmarked(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertNews(ctx, []models.NewsRecord{testRecord("a1", "u1", "t")}))
	require.NoError(t, s.SetBookmarked(ctx, "a1", "u1", true))

	got, err := s.GetNews(ctx, "a1", "u1")
	require.NoError(t, err)
	assert.True(t, got.IsBookmarked)

	assert.ErrorIs(t, s.SetBookmarked(ctx, "missing", "u1", true), ErrNotFound)

	marked, err := s.Bookmarked(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, marked, 1)

	muts, err := s.PendingMutations(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, muts, "bookmark change must be queued for upload")

	require.NoError(t, s.MarkMutationsPushed(ctx, "u1"))
	muts, err = s.PendingMutations(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, muts)
}

func TestUpsertNews_PreservesDirtyBookmarkOverwrite(t *testing.T) {
	// A sync overwrite replaces the whole row; conflict resolution decides
	// beforehand what the row should contain.
	s := setupStore(t)
	ctx := context.Background()

	rec := testRecord("a1", "u1", "t")
	rec.IsBookmarked = true
	require.NoError(t, s.UpsertNews(ctx, []models.NewsRecord{rec}))

	got, err := s.GetNews(ctx, "a1", "u1")
	require.NoError(t, err)
	assert.True(t, got.IsBookmarked)
}

func TestSearchFTS(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertNews(ctx, []models.NewsRecord{
		testRecord("a1", "u1", "Election results announced"),
		testRecord("a2", "u1", "Weather warning issued"),
		testRecord("a3", "u1", "Sports roundup"),
		testRecord("b1", "u2", "Election in another scope"),
	}))

	got, err := s.SearchFTS(ctx, "u1", []string{"election"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)

	// OR-of-terms widens the match
	got, err = s.SearchFTS(ctx, "u1", []string{"election", "weather"}, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// empty terms
	got, err = s.SearchFTS(ctx, "u1", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchLike_Fallback(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertNews(ctx, []models.NewsRecord{
		testRecord("a1", "u1", "Election results announced"),
		testRecord("a2", "u1", "Weather warning issued"),
	}))

	got, err := s.SearchLike(ctx, "u1", []string{"lection"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1, "LIKE matches substrings, not just tokens")
	assert.Equal(t, "a1", got[0].ID)
}

func TestCleanupNews(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	var recs []models.NewsRecord
	for i := 0; i < 10; i++ {
		recs = append(recs, testRecord(fmt.Sprintf("a%d", i), "u1", fmt.Sprintf("title %d", i)))
	}
	recs[0].IsBookmarked = true
	require.NoError(t, s.UpsertNews(ctx, recs))

	deleted, err := s.CleanupNews(ctx, "u1", 5, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Positive(t, deleted)

	st, err := s.NewsStats(ctx, "u1")
	require.NoError(t, err)
	assert.LessOrEqual(t, st.Total, 6, "keep-count plus the bookmarked survivor")

	// bookmarked rows survive cleanup
	_, err = s.GetNews(ctx, "a0", "u1")
	assert.NoError(t, err)
}

func TestSyncMetadata_UpsertIsLastWriteWins(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.GetSyncMetadata(ctx, "news_records", models.SyncDownload)
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpsertSyncMetadata(ctx, models.SyncMetadata{
		TableName:    "news_records",
		Direction:    models.SyncDownload,
		LastSyncTime: now,
		Status:       models.SyncCompleted,
		RecordCount:  12,
		Details:      []byte(`{"incremental":true}`),
	}))

	meta, err := s.GetSyncMetadata(ctx, "news_records", models.SyncDownload)
	require.NoError(t, err)
	assert.Equal(t, models.SyncCompleted, meta.Status)
	assert.Equal(t, 12, meta.RecordCount)
	assert.Equal(t, now, meta.LastSyncTime)

	require.NoError(t, s.UpsertSyncMetadata(ctx, models.SyncMetadata{
		TableName:    "news_records",
		Direction:    models.SyncDownload,
		LastSyncTime: now.Add(time.Minute),
		Status:       models.SyncFailed,
		ErrorMessage: "remote down",
	}))

	meta, err = s.GetSyncMetadata(ctx, "news_records", models.SyncDownload)
	require.NoError(t, err)
	assert.Equal(t, models.SyncFailed, meta.Status)
	assert.Equal(t, "remote down", meta.ErrorMessage)
}

func TestSearchHistory_RetentionByCount(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.NoError(t, s.InsertSearchHistory(ctx, models.SearchHistoryEntry{
			UserID:      "u1",
			Query:       fmt.Sprintf("q%d", i),
			Timestamp:   time.Now().UTC().Add(time.Duration(i) * time.Second),
			ResultCount: i,
		}))
		require.NoError(t, s.EnforceHistoryRetention(ctx, "u1", 10, 90*24*time.Hour))
	}

	entries, err := s.SearchHistory(ctx, "u1", time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), 10)
	assert.Equal(t, "q14", entries[0].Query, "newest first")
}

func TestSearchHistory_RetentionByAge(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertSearchHistory(ctx, models.SearchHistoryEntry{
		UserID: "u1", Query: "old", Timestamp: time.Now().UTC().Add(-100 * 24 * time.Hour),
	}))
	require.NoError(t, s.InsertSearchHistory(ctx, models.SearchHistoryEntry{
		UserID: "u1", Query: "new", Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, s.EnforceHistoryRetention(ctx, "u1", 1000, 90*24*time.Hour))

	entries, err := s.SearchHistory(ctx, "u1", time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Query)
}

func TestUserSentimentProfile(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	r1 := testRecord("a1", "u1", "one")
	r1.SentimentScore = 0.4
	r1.IsBookmarked = true
	r2 := testRecord("a2", "u1", "two")
	r2.SentimentScore = -0.2
	require.NoError(t, s.UpsertNews(ctx, []models.NewsRecord{r1, r2}))

	p, err := s.UserSentimentProfile(ctx, "u1", 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Count)
	assert.InDelta(t, 0.1, p.AvgSentiment, 1e-9)
	assert.InDelta(t, 0.5, p.BookmarkRate, 1e-9)

	// no history: zero count, callers substitute the neutral default
	p, err = s.UserSentimentProfile(ctx, "nobody", 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Count)
}
