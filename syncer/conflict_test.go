package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/newssync/models"
)

func TestResolveConflict_NoLocalRecordAcceptsRemote(t *testing.T) {
	remote := models.NewsRecord{ID: "a1", Title: "new"}

	for _, strategy := range []models.ConflictStrategy{
		models.ServerWins, models.ClientWins, models.Merge,
	} {
		got := resolveConflict(nil, remote, strategy)
		require.NotNil(t, got, "strategy %s", strategy)
		assert.Equal(t, "new", got.Title)
	}
}

func TestResolveConflict_ServerWins(t *testing.T) {
	local := &models.NewsRecord{ID: "a1", Title: "old", IsBookmarked: true}
	remote := models.NewsRecord{ID: "a1", Title: "new"}

	got := resolveConflict(local, remote, models.ServerWins)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Title)
	assert.False(t, got.IsBookmarked, "server wins unconditionally")
}

func TestResolveConflict_ClientWinsSkips(t *testing.T) {
	local := &models.NewsRecord{ID: "a1", Title: "old"}
	remote := models.NewsRecord{ID: "a1", Title: "new"}

	assert.Nil(t, resolveConflict(local, remote, models.ClientWins))
}

func TestResolveConflict_MergeKeepsLocalBookmark(t *testing.T) {
	local := &models.NewsRecord{ID: "a1", Title: "old", IsBookmarked: true}
	remote := models.NewsRecord{ID: "a1", Title: "new", IsBookmarked: false}

	got := resolveConflict(local, remote, models.Merge)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Title, "remote content wins")
	assert.True(t, got.IsBookmarked, "local interaction state survives")
}

func TestResolveConflict_UnknownStrategyDefaultsToServerWins(t *testing.T) {
	local := &models.NewsRecord{ID: "a1", Title: "old"}
	remote := models.NewsRecord{ID: "a1", Title: "new"}

	got := resolveConflict(local, remote, models.ConflictStrategy("bogus"))
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Title)
}

func TestRetryPolicy_Delays(t *testing.T) {
	p := RetryPolicy{
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		MaxRetries: 3,
		Jitter:     false,
	}

	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))

	// monotone before the cap, capped after
	for n := 0; n < 10; n++ {
		assert.GreaterOrEqual(t, p.Delay(n+1), p.Delay(n))
		assert.LessOrEqual(t, p.Delay(n), 30*time.Second)
	}
	assert.Equal(t, 30*time.Second, p.Delay(20))
}

func TestRetryPolicy_JitterStaysInBounds(t *testing.T) {
	p := DefaultRetryPolicy()

	for i := 0; i < 100; i++ {
		d := p.Delay(1) // nominal 2s
		assert.GreaterOrEqual(t, d, time.Duration(0.9*float64(2*time.Second)))
		assert.LessOrEqual(t, d, 2*time.Second)
	}
}

func TestRetryPolicy_JitterNeverExceedsMaxDelay(t *testing.T) {
	p := DefaultRetryPolicy()
	for n := 0; n < 20; n++ {
		assert.LessOrEqual(t, p.Delay(n), p.MaxDelay)
	}
}
