package clicfg

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/newssync/internal/flagx"
)

// parseFlags overlays Config fields from command-line flags.
//
//	-a string   backend API base URL
//	-d string   sqlite DSN
//	-u string   user scope
//	-i int      connectivity probe interval in seconds
//	-s int      background sync interval in seconds (negative disables)
//
// os.Args is filtered to just these flags so other components can own their
// own flags.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-u", "-i", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "backend API base URL")
	fs.StringVar(&cfg.DSN, "d", cfg.DSN, "sqlite database DSN")
	fs.StringVar(&cfg.UserID, "u", cfg.UserID, "user scope")
	probe := fs.Int("i", int(cfg.ProbeInterval.Seconds()), "connectivity probe interval (seconds)")
	syncInt := fs.Int("s", int(cfg.SyncInterval.Seconds()), "background sync interval (seconds, negative disables)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ProbeInterval = time.Duration(*probe) * time.Second
	cfg.SyncInterval = time.Duration(*syncInt) * time.Second
}
