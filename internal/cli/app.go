// Package cli is the interactive shell over the newssync service: feed
// reads, search, bookmarks and sync control from a terminal.
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/newssync"
	"github.com/dmitrijs2005/newssync/internal/clicfg"
	"github.com/dmitrijs2005/newssync/models"
	"github.com/dmitrijs2005/newssync/syncer"
)

// App binds the service to the interactive commands.
type App struct {
	svc *newssync.Service
	cfg *clicfg.Config
}

// NewApp opens the service per config.
func NewApp(ctx context.Context, cfg *clicfg.Config) (*App, error) {
	opts := []newssync.Option{
		newssync.WithUser(cfg.UserID),
		newssync.WithProbeInterval(cfg.ProbeInterval),
		newssync.WithSyncConfig(syncer.Config{BackgroundInterval: cfg.SyncInterval}),
	}
	if cfg.SyncInterval < 0 {
		opts = append(opts, newssync.WithoutBackgroundSync())
	}

	svc, err := newssync.Open(ctx, newssync.Config{BaseURL: cfg.BaseURL, DSN: cfg.DSN}, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening service: %w", err)
	}
	return &App{svc: svc, cfg: cfg}, nil
}

// Close releases the service.
func (a *App) Close() error { return a.svc.Close() }

func (a *App) user() string { return a.svc.CurrentUser() }

// Feed prints one page of the feed; "feed [page]".
func (a *App) Feed(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			page = n
		}
	}
	recs, stale, err := a.svc.Feed(ctx, page, 20)
	if err != nil {
		return err
	}
	if stale {
		printlnFn("(showing cached data)")
	}
	printRecords(recs)
	return nil
}

// Search runs a relevance-ranked search; "search <terms...>".
func (a *App) Search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("usage: search <terms>")
		return nil
	}
	res, err := a.svc.Search(ctx, strings.Join(args, " "), 10, 0.05)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%d of %d candidates, %s",
		len(res.Results), res.TotalCandidates, res.Duration.Round(time.Millisecond)))
	for _, r := range res.Results {
		printlnFn(fmt.Sprintf("  %.3f  [%s] %s", r.Score, r.Record.ID, r.Record.Title))
	}
	return nil
}

// Suggest prints typeahead candidates; "suggest <prefix>".
func (a *App) Suggest(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("usage: suggest <prefix>")
		return nil
	}
	sugg, err := a.svc.Suggestions(ctx, args[0], 10)
	if err != nil {
		return err
	}
	for _, s := range sugg {
		printlnFn(fmt.Sprintf("  %-10s %s (seen %d)", s.Type, s.Text, s.Frequency))
	}
	return nil
}

// Bookmark toggles a bookmark; "bookmark <id> [on|off]".
func (a *App) Bookmark(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("usage: bookmark <id> [on|off]")
		return nil
	}
	on := len(args) < 2 || args[1] != "off"
	return a.svc.Bookmark(ctx, args[0], on)
}

// Bookmarks lists bookmarked articles.
func (a *App) Bookmarks(ctx context.Context) error {
	recs, err := a.svc.Bookmarked(ctx)
	if err != nil {
		return err
	}
	printRecords(recs)
	return nil
}

// Sync runs a foreground sync pass.
func (a *App) Sync(ctx context.Context) error {
	res, err := a.svc.SyncNow(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("synced %d records in %s",
		res.RecordCount, res.Duration.Round(time.Millisecond)))
	return nil
}

// Status prints sync state and connectivity.
func (a *App) Status(ctx context.Context) error {
	online := "offline"
	if a.svc.Online(ctx) {
		online = "online"
	}
	printlnFn(fmt.Sprintf("user=%s sync=%s network=%s",
		a.user(), a.svc.SyncStatus(), online))
	return nil
}

// Stats prints local cache statistics.
func (a *App) Stats(ctx context.Context) error {
	st, err := a.svc.Stats(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%d articles (%d bookmarked, %d fresh)",
		st.Total, st.Bookmarked, st.Fresh))
	for source, n := range st.BySource {
		printlnFn(fmt.Sprintf("  %-24s %d", source, n))
	}
	return nil
}

// Analytics prints search behaviour aggregates.
func (a *App) Analytics(ctx context.Context) error {
	an := a.svc.SearchAnalytics(ctx, time.Time{}, time.Time{})
	printlnFn(fmt.Sprintf("%d searches, %d unique queries, avg %.1f results in %s",
		an.TotalSearches, an.UniqueQueries, an.AvgResultCount,
		an.AvgDuration.Round(time.Millisecond)))
	for _, q := range an.MostFrequentQueries {
		printlnFn(fmt.Sprintf("  %3d  %s", q.Frequency, q.Query))
	}
	return nil
}

// Login installs a session; "login <user> <token>".
func (a *App) Login(ctx context.Context, args []string) error {
	if len(args) < 2 {
		printlnFn("usage: login <user> <token>")
		return nil
	}
	a.svc.SignIn(args[0], args[1])
	printlnFn("signed in as " + args[0])
	return nil
}

// Logout clears the session.
func (a *App) Logout(ctx context.Context) error {
	a.svc.SignOut()
	printlnFn("signed out")
	return nil
}

func printRecords(recs []models.NewsRecord) {
	if len(recs) == 0 {
		printlnFn("no articles")
		return
	}
	for _, r := range recs {
		mark := " "
		if r.IsBookmarked {
			mark = "*"
		}
		printlnFn(fmt.Sprintf("%s [%s] %s | %s (%s)",
			mark, r.ID, r.Title, r.Source,
			r.PublishedAt.Format("2006-01-02")))
	}
}
