package model

import "encoding/json"

// SnapshotEntry is the per-sensor projection written to the aggregate.
type SnapshotEntry struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Value map[string]any `json:"value"`
}

// Snapshot is the full aggregate, ordered by sensor configuration order.
type Snapshot []SnapshotEntry

func (s Snapshot) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

func SnapshotFromJSON(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s, nil
}
