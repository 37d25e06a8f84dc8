package denormalizer

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/a2sensor/denormalizer/internal/config"
	"github.com/a2sensor/denormalizer/internal/lib/logger/sl"
	"github.com/a2sensor/denormalizer/internal/model"
	"github.com/a2sensor/denormalizer/internal/storage"
)

// Engine builds one denormalized snapshot per refresh cycle from the
// measurement tree written by sensor-collect.
type Engine struct {
	log           *slog.Logger
	storageFolder string
	now           func() time.Time
}

// Result describes one completed refresh cycle. Attempted counts wired
// sensors whose storage was consulted; Refreshed counts the subset whose
// latest measurement was actually read. The snapshot is only worth
// persisting when Refreshed > 0.
type Result struct {
	CycleID   string
	StartedAt time.Time
	Snapshot  model.Snapshot
	Attempted int
	Refreshed int
}

func NewEngine(log *slog.Logger, storageFolder string) *Engine {
	return &Engine{
		log:           log,
		storageFolder: storageFolder,
		now:           time.Now,
	}
}

// Refresh produces one snapshot entry per configured sensor, in
// configuration order. A sensor that cannot be resolved or read gets a
// synthetic unknown value; no per-sensor failure stops the cycle.
func (e *Engine) Refresh(reg *config.Registry) *Result {
	result := &Result{
		CycleID:   uuid.New().String(),
		StartedAt: e.now().UTC(),
		Snapshot:  make(model.Snapshot, 0, reg.Len()),
	}

	for _, id := range reg.IDs() {
		sensor, _ := reg.Get(id)
		result.Snapshot = append(result.Snapshot, e.refreshSensor(sensor, result))
	}

	return result
}

func (e *Engine) refreshSensor(sensor config.SensorConfig, result *Result) model.SnapshotEntry {
	entry := model.SnapshotEntry{
		ID:   sensor.ID,
		Name: sensor.Name,
	}

	if !sensor.Wired() {
		entry.Value = model.UnknownValue(e.now())
		return entry
	}

	result.Attempted++

	path, ok, err := storage.LatestMeasurementFile(e.storageFolder, sensor.ID)
	if err != nil {
		e.log.Error("failed to resolve latest measurement",
			slog.String("sensor_id", sensor.ID),
			sl.Err(err),
		)
		entry.Value = model.UnknownValue(e.now())
		return entry
	}
	if !ok {
		e.log.Debug("no measurement yet",
			slog.String("sensor_id", sensor.ID),
		)
		entry.Value = model.UnknownValue(e.now())
		return entry
	}

	measurement, err := storage.ReadMeasurement(path)
	if err != nil {
		e.log.Warn("unreadable measurement, treating as missing",
			slog.String("sensor_id", sensor.ID),
			slog.String("path", path),
			sl.Err(err),
		)
		entry.Value = model.UnknownValue(e.now())
		return entry
	}

	result.Refreshed++

	if measurement.HasStatusAndTimestamp() {
		entry.Value = measurement.Value
	} else {
		// Degraded measurement: keep the whole raw document so consumers
		// still see whatever structure is present.
		entry.Value = measurement.Raw
	}

	return entry
}
