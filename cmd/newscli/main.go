package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/newssync/internal/cli"
	"github.com/dmitrijs2005/newssync/internal/clicfg"
)

func main() {
	ctx := context.Background()
	cfg := clicfg.LoadConfig()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = app.Close() }()

	app.Run(ctx, bufio.NewScanner(os.Stdin))
}
