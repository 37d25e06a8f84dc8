package denormalizer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/a2sensor/denormalizer/internal/config"
	"github.com/a2sensor/denormalizer/internal/journal"
	"github.com/a2sensor/denormalizer/internal/lib/logger/sl"
	"github.com/a2sensor/denormalizer/internal/writer"
)

// Manager drives the refresh engine on a fixed interval: one immediate
// cycle on start, then one per tick, until the context is cancelled or
// Stop is called. All cycles run on the loop goroutine, so two cycles can
// never overlap.
type Manager struct {
	log      *slog.Logger
	cfg      *config.Config
	engine   *Engine
	writer   writer.Writer
	journal  journal.Journal
	registry *config.Registry
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewManager(
	log *slog.Logger,
	cfg *config.Config,
	registry *config.Registry,
	engine *Engine,
	writer writer.Writer,
	journal journal.Journal,
) *Manager {
	return &Manager{
		log:      log,
		cfg:      cfg,
		engine:   engine,
		writer:   writer,
		journal:  journal,
		registry: registry,
		stopCh:   make(chan struct{}),
	}
}

// Start blocks until the context is cancelled or Stop is called. The
// first refresh runs immediately so a cold start does not wait a full
// interval for its first output.
func (m *Manager) Start(ctx context.Context) {
	m.log.Info("starting denormalizer manager",
		slog.Duration("interval", m.cfg.Refresh.Interval),
		slog.Int("sensors", m.registry.Len()),
	)

	ticker := time.NewTicker(m.cfg.Refresh.Interval)
	defer ticker.Stop()

	if m.journal != nil {
		m.wg.Add(1)
		go m.cleanupJournal(ctx)
	}

	m.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			m.log.Info("context cancelled, stopping manager")
			return
		case <-m.stopCh:
			m.log.Info("stop signal received, stopping manager")
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Manager) runCycle(ctx context.Context) {
	reg, err := config.LoadSensors(m.cfg.Sensors.ConfigPath)
	if err != nil {
		m.log.Error("failed to reload sensors config, using last good one",
			sl.Err(err),
		)
		reg = m.registry
	} else {
		m.registry = reg
	}

	result := m.engine.Refresh(reg)

	if result.Refreshed == 0 {
		m.log.Info("no sensors refreshed, keeping previous output",
			slog.String("cycle_id", result.CycleID),
			slog.Int("attempted", result.Attempted),
		)
		return
	}

	if err := m.writer.Write(ctx, result.Snapshot); err != nil {
		m.log.Error("failed to write output, previous snapshot kept",
			slog.String("cycle_id", result.CycleID),
			sl.Err(err),
		)
		return
	}

	m.log.Info("output refreshed",
		slog.String("cycle_id", result.CycleID),
		slog.Int("sensors", len(result.Snapshot)),
		slog.Int("refreshed", result.Refreshed),
	)

	if m.journal != nil {
		cycle := &journal.Cycle{
			ID:        result.CycleID,
			StartedAt: result.StartedAt,
			Attempted: result.Attempted,
			Refreshed: result.Refreshed,
			Snapshot:  result.Snapshot,
		}
		if err := m.journal.Record(ctx, cycle); err != nil {
			m.log.Error("failed to record cycle in journal", sl.Err(err))
		}
	}
}

func (m *Manager) cleanupJournal(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			if err := m.journal.Cleanup(ctx, m.cfg.Journal.MaxAge); err != nil {
				m.log.Error("failed to cleanup journal", sl.Err(err))
			}
		}
	}
}
