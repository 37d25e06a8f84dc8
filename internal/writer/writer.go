package writer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/a2sensor/denormalizer/internal/config"
	"github.com/a2sensor/denormalizer/internal/lib/logger/sl"
	"github.com/a2sensor/denormalizer/internal/model"
)

type Writer interface {
	Write(ctx context.Context, snapshot model.Snapshot) error
}

// FileWriter replaces the output artifact with a new snapshot. The write
// goes to a temp file in the same directory and is renamed into place, so
// readers never see a partial document and a failed write leaves the
// previous artifact intact.
type FileWriter struct {
	log         *slog.Logger
	path        string
	maxAttempts int
	backoff     *ExponentialBackoff
}

func NewFileWriter(log *slog.Logger, path string, retry config.RetryConfig) *FileWriter {
	maxAttempts := retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &FileWriter{
		log:         log,
		path:        path,
		maxAttempts: maxAttempts,
		backoff:     NewExponentialBackoff(retry.InitialDelay, retry.MaxDelay),
	}
}

func (w *FileWriter) Write(ctx context.Context, snapshot model.Snapshot) error {
	data, err := snapshot.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.replace(data)
		if err == nil {
			return nil
		}

		lastErr = err
		w.log.Warn("output write attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", w.maxAttempts),
			sl.Err(err),
		)

		if attempt < w.maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.backoff.NextDelay(attempt - 1)):
			}
		}
	}

	return fmt.Errorf("all %d write attempts failed: %w", w.maxAttempts, lastErr)
}

func (w *FileWriter) replace(data []byte) error {
	dir := filepath.Dir(w.path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", w.path, err)
	}

	return nil
}

// LogWriter logs snapshots instead of writing them (for dry-run mode).
type LogWriter struct {
	log *slog.Logger
}

func NewLogWriter(log *slog.Logger) *LogWriter {
	return &LogWriter{log: log}
}

func (w *LogWriter) Write(ctx context.Context, snapshot model.Snapshot) error {
	data, err := snapshot.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	w.log.Info("WRITE",
		slog.Int("sensors", len(snapshot)),
		slog.String("payload", string(data)),
	)

	return nil
}
