package snapshot

import "encoding/json"

// Snapshot is the state of one document at Version. A snapshot with
// Version 0, empty Type and nil Data stands for a document that was never
// created; a deleted document keeps its version with empty Type and Data.
type Snapshot struct {
	ID      string          `json:"id"`
	Version int64           `json:"v"`
	Type    string          `json:"type,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Empty returns the synthetic snapshot served for unknown ids, so first-time
// subscribers create rather than update.
func Empty(id string) Snapshot { return Snapshot{ID: id} }

// Exists reports whether the document is currently created.
func (s Snapshot) Exists() bool { return s.Type != "" }
