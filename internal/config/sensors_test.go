package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSensorsFile(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sensors.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write sensors file: %v", err)
	}
	return path
}

func TestLoadSensorsPreservesOrderAndIndex(t *testing.T) {
	path := writeSensorsFile(t, `
sensors:
  - id: s3
    name: Third
    pin: 22
  - id: s1
    name: First
    pin: 17
  - id: s2
    name: Second
`)

	reg, err := LoadSensors(path)
	if err != nil {
		t.Fatalf("load sensors: %v", err)
	}

	ids := reg.IDs()
	want := []string{"s3", "s1", "s2"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("expected id %q at position %d, got %q", id, i, ids[i])
		}
		sensor, ok := reg.Get(id)
		if !ok {
			t.Fatalf("sensor %q not found", id)
		}
		if sensor.Index != i {
			t.Fatalf("expected index %d for %q, got %d", i, id, sensor.Index)
		}
	}
}

func TestLoadSensorsNormalizesMissingPin(t *testing.T) {
	path := writeSensorsFile(t, `
sensors:
  - id: wired
    name: Wired
    pin: 0
  - id: unwired
    name: Unwired
`)

	reg, err := LoadSensors(path)
	if err != nil {
		t.Fatalf("load sensors: %v", err)
	}

	wired, _ := reg.Get("wired")
	if wired.Pin != 0 {
		t.Fatalf("expected pin 0, got %d", wired.Pin)
	}
	if !wired.Wired() {
		t.Fatal("expected pin 0 sensor to be wired")
	}

	unwired, _ := reg.Get("unwired")
	if unwired.Pin != NotWired {
		t.Fatalf("expected NotWired sentinel, got %d", unwired.Pin)
	}
	if unwired.Wired() {
		t.Fatal("expected sensor without pin to be unwired")
	}
}

func TestLoadSensorsRejectsDuplicateIDs(t *testing.T) {
	path := writeSensorsFile(t, `
sensors:
  - id: s1
    name: One
  - id: s1
    name: Dup
`)

	if _, err := LoadSensors(path); err == nil {
		t.Fatal("expected error for duplicate sensor id")
	}
}

func TestLoadSensorsRejectsMissingID(t *testing.T) {
	path := writeSensorsFile(t, `
sensors:
  - name: Nameless
`)

	if _, err := LoadSensors(path); err == nil {
		t.Fatal("expected error for sensor without id")
	}
}

func TestLoadSensorsMissingFile(t *testing.T) {
	if _, err := LoadSensors(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing sensors file")
	}
}
