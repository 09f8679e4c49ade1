package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = func(args ...any) { fmt.Println(args...) }

// execIface is the minimal command surface the REPL needs. App satisfies
// it; tests can provide a stub.
type execIface interface {
	Feed(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Suggest(ctx context.Context, args []string) error
	Bookmark(ctx context.Context, args []string) error
	Bookmarks(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Stats(ctx context.Context) error
	Analytics(ctx context.Context) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
}

const helpText = `commands:
  feed [page]           show the news feed
  search <terms>        relevance-ranked search over cached articles
  suggest <prefix>      typeahead suggestions
  bookmark <id> [off]   toggle a bookmark
  bookmarks             list bookmarked articles
  sync                  run a sync pass now
  status                sync state and connectivity
  stats                 local cache statistics
  analytics             search behaviour aggregates
  login <user> <token>  sign in
  logout                sign out
  exit | quit           leave`

// runREPL reads commands line by line and dispatches to a. It returns on
// scanner EOF or on "exit"/"quit".
func runREPL(ctx context.Context, scanner *bufio.Scanner, statusFn func() string, a execIface) {
	for {
		fmt.Printf("news %s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "feed":
			err = a.Feed(ctx, args)
		case "search":
			err = a.Search(ctx, args)
		case "suggest":
			err = a.Suggest(ctx, args)
		case "bookmark":
			err = a.Bookmark(ctx, args)
		case "bookmarks":
			err = a.Bookmarks(ctx)
		case "sync":
			err = a.Sync(ctx)
		case "status":
			err = a.Status(ctx)
		case "stats":
			err = a.Stats(ctx)
		case "analytics":
			err = a.Analytics(ctx)
		case "login":
			err = a.Login(ctx, args)
		case "logout":
			err = a.Logout(ctx)
		case "exit", "quit":
			return
		default:
			printlnFn("unknown command: " + cmd + " (type 'help')")
		}
		if err != nil {
			printlnFn("error: " + err.Error())
		}
	}
}

// Run starts the interactive loop on the given scanner.
func (a *App) Run(ctx context.Context, scanner *bufio.Scanner) {
	printlnFn("newssync CLI (type 'help' for commands)")
	runREPL(ctx, scanner, func() string { return "(" + a.user() + ")" }, a)
}
