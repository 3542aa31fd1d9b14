// Package patch persists synth state as human-readable JSON.
package patch

import (
	"encoding/json"
	"fmt"
	"os"
)

// Connection is one serialized modulation route. Source and target are the
// matrix enum values as integers.
type Connection struct {
	Source    int     `json:"source"`
	Target    int     `json:"target"`
	Intensity float64 `json:"intensity"`
}

// Data is the full state of a patch: a name, a map of symbolic parameter
// names to values, and the modulation routes.
type Data struct {
	Version     int                `json:"version"`
	Name        string             `json:"name"`
	Parameters  map[string]float64 `json:"parameters"`
	Modulations []Connection       `json:"modulations"`
}

// New returns an empty patch at the current format version.
func New(name string) *Data {
	return &Data{Version: 1, Name: name, Parameters: map[string]float64{}}
}

// Marshal serializes the patch. Map keys are emitted sorted, so the output
// is deterministic and save→load→save round-trips byte-identically.
func Marshal(d *Data) ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("patch: marshal: %w", err)
	}
	return append(out, '\n'), nil
}

// Unmarshal parses a serialized patch.
func Unmarshal(data []byte) (*Data, error) {
	d := &Data{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("patch: unmarshal: %w", err)
	}
	if d.Parameters == nil {
		d.Parameters = map[string]float64{}
	}
	return d, nil
}

// Save writes the patch to a file.
func Save(d *Data, path string) error {
	out, err := Marshal(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("patch: save %s: %w", path, err)
	}
	return nil
}

// Load reads a patch from a file.
func Load(path string) (*Data, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patch: load %s: %w", path, err)
	}
	return Unmarshal(data)
}
