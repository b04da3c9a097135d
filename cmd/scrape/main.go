package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gradcafe-engine/internal/config"
	"gradcafe-engine/internal/scrape"
	"gradcafe-engine/internal/state"
	"gradcafe-engine/internal/store"
)

var (
	flagConfig string
	flagSince  string
	flagSleep  time.Duration
	flagDB     string
	flagState  string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Pull new admissions results into the local database",
		Long: `Walks the listing pages, follows each entry's detail link, and appends
normalized records to the database. Only entries added on or after the
cutoff (the last run's watermark by default) are considered.`,
		RunE:         runScrape,
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&flagConfig, "config", filepath.Join("config", "config.yml"), "Config file path")
	cmd.Flags().StringVar(&flagSince, "since", "", "Only include entries added on or after YYYY-MM-DD (overrides the watermark)")
	cmd.Flags().DurationVar(&flagSleep, "sleep", 0, "Delay between requests (overrides config)")
	cmd.Flags().StringVar(&flagDB, "db", "", "Database path (default <data_dir>/gradcafe.db)")
	cmd.Flags().StringVar(&flagState, "state", "", "Watermark file path (default <data_dir>/last_run.txt)")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config %s: %w", flagConfig, err)
	}
	cfg, vr := config.NormalizeAndValidate(cfg)
	if !vr.OK() {
		return fmt.Errorf("config validation failed: %s", vr.Errors[0])
	}
	if flagSleep > 0 {
		cfg.Source.DelayMS = int(flagSleep / time.Millisecond)
	}

	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		return err
	}
	dbPath := flagDB
	if dbPath == "" {
		dbPath = filepath.Join(cfg.App.DataDir, "gradcafe.db")
	}
	statePath := flagState
	if statePath == "" {
		statePath = filepath.Join(cfg.App.DataDir, "last_run.txt")
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db %s: %w", dbPath, err)
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	since := flagSince
	if since == "" {
		since = cfg.Scrape.Since
	}
	cutoff := state.ResolveSince(since, statePath, cfg.Scrape.BackfillDays)
	fmt.Printf("cutoff (added on >=): %s\n", cutoff.Format("2006-01-02"))

	added, maxDate, err := scrape.RunOnce(cmd.Context(), db, cfg, cutoff, nil)
	if err != nil {
		return err
	}

	if added > 0 && !maxDate.IsZero() {
		if err := state.Save(statePath, maxDate); err != nil {
			log.Printf("[scrape] watermark save failed: %v", err)
		}
	} else if err := state.EnsureInitialized(statePath); err != nil {
		log.Printf("[scrape] watermark init failed: %v", err)
	}

	// The orchestration layer pattern-matches this exact phrasing.
	fmt.Printf("appended %d records\n", added)
	return nil
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
