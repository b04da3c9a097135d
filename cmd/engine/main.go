package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"gradcafe-engine/internal/config"
	"gradcafe-engine/internal/events"
	"gradcafe-engine/internal/httpapi"
	"gradcafe-engine/internal/runner"
	"gradcafe-engine/internal/scheduler"
	"gradcafe-engine/internal/scrape"
	"gradcafe-engine/internal/state"
	"gradcafe-engine/internal/store"
)

func main() {
	_ = godotenv.Load()

	dataDir := os.Getenv("GRADCAFE_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	userCfgPath, err := config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		cfg, vr := config.NormalizeAndValidate(cfg)
		if !vr.OK() {
			return cfg, errors.New(vr.Errors[0])
		}
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "gradcafe.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()

	var pullStatus atomic.Value
	pullStatus.Store(httpapi.PullStatus{})

	statePath := filepath.Join(dataDir, "last_run.txt")
	lockPath := filepath.Join(dataDir, "scrape.lock")

	// The in-process pull: take the run lock, resolve the cutoff, run the
	// pipeline, advance the watermark only when something was appended. The
	// lock is the same scrape.lock the batch CLI orchestration uses, so an
	// engine pull and an external scrape run can never interleave.
	runPull := func(ctx context.Context, cfg config.Config, onAppended func()) (int, error) {
		fl := flock.New(lockPath)
		locked, err := fl.TryLock()
		if err != nil {
			return 0, fmt.Errorf("acquire run lock: %w", err)
		}
		if !locked {
			return 0, runner.ErrAlreadyRunning
		}
		defer func() { _ = fl.Unlock() }()

		since := state.ResolveSince(cfg.Scrape.Since, statePath, cfg.Scrape.BackfillDays)
		added, maxDate, err := scrape.RunOnce(ctx, db, cfg, since, onAppended)
		if err != nil {
			return added, err
		}
		if added > 0 && !maxDate.IsZero() {
			if werr := state.Save(statePath, maxDate); werr != nil {
				log.Printf("[engine] watermark save failed: %v", werr)
			}
		} else if ierr := state.EnsureInitialized(statePath); ierr != nil {
			log.Printf("[engine] watermark init failed: %v", ierr)
		}
		return added, nil
	}

	deps := httpapi.Deps{
		DB:          db,
		Hub:         hub,
		CfgVal:      &cfgVal,
		PullStatus:  &pullStatus,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		RunPull:     runPull,
	}
	handler := httpapi.Chain(httpapi.NewMux(deps),
		httpapi.RequestID, httpapi.AccessLog, httpapi.Recover, httpapi.Cors)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("engine listening on http://%s (db=%s)", addr, dbPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Polling.PullSeconds > 0 {
		// Scheduled pulls go through the same handler gate as POST /pull,
		// so the running flag and the 409s hold for both.
		ph := httpapi.PullHandler{
			CfgVal:     &cfgVal,
			PullStatus: &pullStatus,
			Hub:        hub,
			RunPull:    runPull,
		}
		g.Go(func() error {
			interval := time.Duration(cfg.Polling.PullSeconds) * time.Second
			scheduler.Every(ctx, interval, "pull", ph.RunScheduled)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}
