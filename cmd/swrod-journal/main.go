// swrod-journal inspects the lookup-failure journal written by debug-mode
// sessions: list recent failures with their context suggestions, or prune
// old records.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sunshower1127/swrod/config"
	"github.com/sunshower1127/swrod/pkg/logger"
	"github.com/sunshower1127/swrod/storage"
)

// Build info, injected via LDFLAGS.
var (
	Version   = "v0.1.0"
	BuildTime = ""
	GoVersion = ""
)

func main() {
	configPath := flag.String("config", "config.toml", "Path to config file")
	dbPath := flag.String("db", "", "Journal database path (overrides config)")
	list := flag.Int("list", 20, "List the N most recent failures")
	prune := flag.Duration("prune", 0, "Delete records older than this, e.g. 168h")
	version := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *version {
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Go Version: %s\n", GoVersion)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}
	logger.Init(cfg.Log)

	path := *dbPath
	if path == "" && cfg.Journal != nil {
		path = cfg.Journal.Path
	}
	if path == "" {
		log.Fatal("No journal path: set -db or journal.path in the config file")
	}

	journal, err := storage.Open(path)
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer journal.Close()

	ctx := context.Background()

	if *prune > 0 {
		removed, err := journal.Prune(time.Now().Add(-*prune))
		if err != nil {
			log.Fatalf("Failed to prune journal: %v", err)
		}
		logger.Info(ctx, "Pruned %d records older than %s", removed, *prune)
		return
	}

	records, err := journal.ListFailures(*list)
	if err != nil {
		log.Fatalf("Failed to list failures: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("No recorded lookup failures.")
		return
	}

	for _, rec := range records {
		fmt.Printf("%s  %s\n", rec.At.Local().Format("2006-01-02 15:04:05"), rec.Locator)
		fmt.Printf("    scope: %s  timeout: %s\n", rec.Scope, rec.Timeout)
		if rec.PageURL != "" {
			fmt.Printf("    page: %s\n", rec.PageURL)
		}
		if rec.TraceID != "" {
			fmt.Printf("    trace: %s\n", rec.TraceID)
		}
		for _, c := range rec.Contexts {
			fmt.Printf("    found in: %s\n", c)
		}
	}
}
