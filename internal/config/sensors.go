package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// NotWired marks a sensor that is configured but has no physical pin.
const NotWired = -1

type SensorConfig struct {
	ID    string
	Name  string
	Pin   int
	Index int
}

// Wired reports whether the sensor is physically connected.
func (s SensorConfig) Wired() bool {
	return s.Pin != NotWired
}

type sensorEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Pin  *int   `yaml:"pin"`
}

type sensorsDocument struct {
	Sensors []sensorEntry `yaml:"sensors"`
}

// Registry is an immutable snapshot of the sensors document. Iteration
// order is declaration order; each reload produces a new Registry.
type Registry struct {
	ids  []string
	byID map[string]SensorConfig
}

// LoadSensors reads the sensors document at path. A missing pin is
// normalized to NotWired so downstream code can branch on one sentinel.
func LoadSensors(path string) (*Registry, error) {
	var doc sensorsDocument
	if err := cleanenv.ReadConfig(path, &doc); err != nil {
		return nil, fmt.Errorf("failed to read sensors config %s: %w", path, err)
	}

	reg := &Registry{
		ids:  make([]string, 0, len(doc.Sensors)),
		byID: make(map[string]SensorConfig, len(doc.Sensors)),
	}

	for i, entry := range doc.Sensors {
		if entry.ID == "" {
			return nil, fmt.Errorf("sensors config %s: entry %d has no id", path, i)
		}
		if _, exists := reg.byID[entry.ID]; exists {
			return nil, fmt.Errorf("sensors config %s: duplicate sensor id %q", path, entry.ID)
		}

		pin := NotWired
		if entry.Pin != nil {
			pin = *entry.Pin
		}

		reg.ids = append(reg.ids, entry.ID)
		reg.byID[entry.ID] = SensorConfig{
			ID:    entry.ID,
			Name:  entry.Name,
			Pin:   pin,
			Index: i,
		}
	}

	return reg, nil
}

// IDs returns the sensor ids in declaration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

func (r *Registry) Get(id string) (SensorConfig, bool) {
	s, ok := r.byID[id]
	return s, ok
}

func (r *Registry) Len() int {
	return len(r.ids)
}
