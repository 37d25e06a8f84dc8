package model

import (
	"encoding/json"
	"time"
)

const (
	StatusUnknown = "unknown"
)

// Measurement is one decoded measurement file as written by the
// sensor-collect process. Raw keeps the full document so fields beyond
// name/value survive denormalization.
type Measurement struct {
	Name  string
	Value map[string]any
	Raw   map[string]any
}

func MeasurementFromJSON(data []byte) (*Measurement, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	m := &Measurement{Raw: raw}
	if name, ok := raw["name"].(string); ok {
		m.Name = name
	}
	if value, ok := raw["value"].(map[string]any); ok {
		m.Value = value
	}
	return m, nil
}

// HasStatusAndTimestamp reports whether the nested value carries both
// fields the snapshot format promotes.
func (m *Measurement) HasStatusAndTimestamp() bool {
	if m.Value == nil {
		return false
	}
	_, hasStatus := m.Value["status"]
	_, hasTimestamp := m.Value["timestamp"]
	return hasStatus && hasTimestamp
}

// UnknownValue is the synthetic value emitted for sensors with no usable
// measurement.
func UnknownValue(now time.Time) map[string]any {
	return map[string]any{
		"status":    StatusUnknown,
		"timestamp": now.UTC().Format(time.RFC3339),
	}
}
