package main

import (
	"fmt"
	"log/slog"
	"os"

	app "github.com/valter-silva-au/wbs-gantt/internal"
	"github.com/valter-silva-au/wbs-gantt/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	basePath := app.ResolveBasePath()

	a, err := app.NewApp(basePath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing gantt: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute()
	_ = a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
