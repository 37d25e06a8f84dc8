package denormalizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/a2sensor/denormalizer/internal/config"
	"github.com/a2sensor/denormalizer/internal/model"
)

type captureWriter struct {
	mu        sync.Mutex
	snapshots []model.Snapshot
	err       error
	calls     int
}

func (w *captureWriter) Write(ctx context.Context, snapshot model.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.snapshots = append(w.snapshots, snapshot)
	return nil
}

func (w *captureWriter) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

func (w *captureWriter) lastSnapshot() (model.Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.snapshots) == 0 {
		return nil, false
	}
	return w.snapshots[len(w.snapshots)-1], true
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func newTestManager(t *testing.T, sensorsYAML, root string, w *captureWriter) (*Manager, string) {
	t.Helper()

	sensorsPath := filepath.Join(t.TempDir(), "sensors.yaml")
	if err := os.WriteFile(sensorsPath, []byte(sensorsYAML), 0o600); err != nil {
		t.Fatalf("write sensors file: %v", err)
	}

	reg, err := config.LoadSensors(sensorsPath)
	if err != nil {
		t.Fatalf("load sensors: %v", err)
	}

	cfg := &config.Config{
		Refresh: config.RefreshConfig{Interval: 20 * time.Millisecond},
		Sensors: config.SensorsRef{ConfigPath: sensorsPath},
	}

	engine := newTestEngine(root)
	return NewManager(testLogger(), cfg, reg, engine, w, nil), sensorsPath
}

func TestManagerWritesOnColdStart(t *testing.T) {
	root := t.TempDir()
	writeMeasurement(t, root, "s1", "m1.json",
		`{"name":"Temp","value":{"status":"ok","timestamp":"T1"}}`)

	w := &captureWriter{}
	m, _ := newTestManager(t, `
sensors:
  - id: s1
    name: Temp
    pin: 17
`, root, w)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	if !waitFor(t, time.Second, func() bool { return w.callCount() >= 1 }) {
		t.Fatal("expected a write shortly after start")
	}

	cancel()
	<-done
	m.Stop()

	snapshot, ok := w.lastSnapshot()
	if !ok {
		t.Fatal("expected a captured snapshot")
	}
	if len(snapshot) != 1 || snapshot[0].ID != "s1" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestManagerSkipsWriteWhenNothingRefreshed(t *testing.T) {
	// Wired sensor with no measurements: attempted but never refreshed,
	// so the output must not be touched.
	w := &captureWriter{}
	m, _ := newTestManager(t, `
sensors:
  - id: s1
    name: Temp
    pin: 17
`, t.TempDir(), w)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	time.Sleep(80 * time.Millisecond)
	cancel()
	<-done
	m.Stop()

	if w.callCount() != 0 {
		t.Fatalf("expected no writes, got %d", w.callCount())
	}
}

func TestManagerPicksUpSensorConfigChanges(t *testing.T) {
	root := t.TempDir()
	writeMeasurement(t, root, "s1", "m1.json",
		`{"name":"Temp","value":{"status":"ok","timestamp":"T1"}}`)

	w := &captureWriter{}
	m, sensorsPath := newTestManager(t, `
sensors:
  - id: s1
    name: Temp
    pin: 17
`, root, w)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	if !waitFor(t, time.Second, func() bool { return w.callCount() >= 1 }) {
		t.Fatal("expected a write shortly after start")
	}

	updated := `
sensors:
  - id: s1
    name: Temp
    pin: 17
  - id: s2
    name: Added later
`
	if err := os.WriteFile(sensorsPath, []byte(updated), 0o600); err != nil {
		t.Fatalf("update sensors file: %v", err)
	}

	grew := waitFor(t, time.Second, func() bool {
		snapshot, ok := w.lastSnapshot()
		return ok && len(snapshot) == 2
	})

	cancel()
	<-done
	m.Stop()

	if !grew {
		t.Fatal("expected a later snapshot to include the added sensor")
	}
}

func TestManagerSurvivesWriteFailures(t *testing.T) {
	root := t.TempDir()
	writeMeasurement(t, root, "s1", "m1.json",
		`{"name":"Temp","value":{"status":"ok","timestamp":"T1"}}`)

	w := &captureWriter{err: errors.New("disk full")}
	m, _ := newTestManager(t, `
sensors:
  - id: s1
    name: Temp
    pin: 17
`, root, w)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	// The loop must keep ticking past the failed writes.
	if !waitFor(t, time.Second, func() bool { return w.callCount() >= 2 }) {
		t.Fatal("expected the loop to continue after a write failure")
	}

	cancel()
	<-done
	m.Stop()
}
