package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/a2sensor/denormalizer/internal/model"
)

// LatestMeasurementFile returns the path of the most recent measurement
// file for the sensor, picking the lexicographically greatest base name
// (collect names files so that name order equals time order). ok is false
// when the sensor has no directory yet or the directory holds no regular
// files; neither case is an error.
func LatestMeasurementFile(root, sensorID string) (string, bool, error) {
	dir := filepath.Join(root, sensorID)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	latest := ""
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if entry.Name() > latest {
			latest = entry.Name()
		}
	}

	if latest == "" {
		return "", false, nil
	}

	return filepath.Join(dir, latest), true, nil
}

// ReadMeasurement decodes one measurement file.
func ReadMeasurement(path string) (*model.Measurement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read measurement %s: %w", path, err)
	}

	m, err := model.MeasurementFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse measurement %s: %w", path, err)
	}

	return m, nil
}
