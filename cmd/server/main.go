package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgallion1/distill/internal/api"
	"github.com/dgallion1/distill/internal/config"
	"github.com/dgallion1/distill/internal/logger"
	"github.com/dgallion1/distill/internal/pipeline"
	"github.com/dgallion1/distill/internal/store"
	"github.com/dgallion1/distill/internal/watcher"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Writer: os.Stdout, Format: cfg.LogFormat, Level: logger.ParseLevel(cfg.LogLevel)})

	if err := cfg.Validate(config.ModeServer); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(store.Options{Dir: cfg.CacheDir}, log)
	if err != nil {
		log.Error("failed to open result store", "error", err)
		os.Exit(1)
	}

	sum, claude, err := pipeline.NewSummarizer(cfg, log)
	if err != nil {
		log.Error("invalid summarizer", "error", err)
		os.Exit(1)
	}
	if err := sum.Init(ctx); err != nil {
		log.Warn("summary fallback disabled", "error", err)
	}

	orch := pipeline.NewOrchestrator(cfg, st, sum, log)
	orch.Start(ctx)

	watchDone := make(chan struct{})
	if cfg.WatchDir != "" {
		w := watcher.New(cfg.WatchDir, watcher.Options{ScanExisting: true}, submitFile(orch, cfg), log)
		go func() {
			defer close(watchDone)
			if err := w.Run(ctx); err != nil {
				log.Error("watcher stopped", "error", err)
			}
		}()
	} else {
		close(watchDone)
	}

	srv := api.NewServer(orch, claude, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting distill server", "port", cfg.Port, "fallback", sum.FallbackName(), "workers", cfg.WorkerCount)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	exitCode := 0
	select {
	case <-sigCh:
		log.Info("shutting down...")
	case err := <-errCh:
		log.Error("server error", "error", err)
		exitCode = 1
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	cancel()
	<-watchDone
	orch.Stop()
	if claude != nil {
		claude.Close()
	}
	if err := st.Close(); err != nil {
		log.Error("close result store", "error", err)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// submitFile queues a watched file with the default summary settings.
func submitFile(orch *pipeline.Orchestrator, cfg config.Config) watcher.SubmitFunc {
	return func(path string) error {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() > cfg.MaxUploadBytes {
			return fmt.Errorf("file exceeds max size (%d bytes)", cfg.MaxUploadBytes)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		job, err := pipeline.NewJob(filepath.Base(path), data, true, cfg.SummarySentences)
		if err != nil {
			return err
		}
		return orch.Submit(job)
	}
}
