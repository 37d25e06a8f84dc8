package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a2sensor/denormalizer/internal/config"
	"github.com/a2sensor/denormalizer/internal/denormalizer"
	"github.com/a2sensor/denormalizer/internal/health"
	"github.com/a2sensor/denormalizer/internal/journal"
	"github.com/a2sensor/denormalizer/internal/lib/logger/sl"
	"github.com/a2sensor/denormalizer/internal/writer"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	dryRun := flag.Bool("dry-run", false, "log snapshots instead of writing the output file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log := sl.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	log.Info("starting sensor denormalizer",
		slog.String("env", cfg.Env),
		slog.String("storage_folder", cfg.Storage.Folder),
		slog.String("output_path", cfg.Output.Path),
		slog.Bool("dry_run", *dryRun),
	)

	registry, err := config.LoadSensors(cfg.Sensors.ConfigPath)
	if err != nil {
		log.Error("failed to load sensors config", sl.Err(err))
		os.Exit(1)
	}

	log.Info("loaded sensors config",
		slog.String("path", cfg.Sensors.ConfigPath),
		slog.Int("sensors", registry.Len()),
	)

	// Use LogWriter for dry-run mode, FileWriter otherwise
	var out writer.Writer
	if *dryRun {
		out = writer.NewLogWriter(log)
		log.Info("dry-run mode: snapshots will be logged instead of written")
	} else {
		out = writer.NewFileWriter(log, cfg.Output.Path, cfg.Output.Retry)
	}

	var jrnl journal.Journal
	if cfg.Journal.Enabled && !*dryRun {
		sqliteJournal, err := journal.NewSQLiteJournal(log, cfg.Journal.Path)
		if err != nil {
			log.Error("failed to create journal", sl.Err(err))
			os.Exit(1)
		}
		jrnl = sqliteJournal
		log.Info("journal enabled", slog.String("path", cfg.Journal.Path))
	}

	healthServer := health.NewServer(log, cfg.Health.Address)

	healthServer.AddChecker(health.NewStorageHealthChecker(cfg.Storage.Folder))

	if jrnl != nil {
		healthServer.AddChecker(health.NewJournalHealthChecker(jrnl, cfg.Refresh.Interval))
	}

	if err := healthServer.Start(); err != nil {
		log.Error("failed to start health server", sl.Err(err))
		os.Exit(1)
	}

	engine := denormalizer.NewEngine(log, cfg.Storage.Folder)
	manager := denormalizer.NewManager(log, cfg, registry, engine, out, jrnl)

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", slog.String("signal", sig.String()))
		cancel()
	}()

	manager.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	manager.Stop()

	if err := healthServer.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop health server", sl.Err(err))
	}

	if jrnl != nil {
		if err := jrnl.Close(); err != nil {
			log.Error("failed to close journal", sl.Err(err))
		}
	}

	log.Info("denormalizer stopped")
}
