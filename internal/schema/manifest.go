package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Manifest records the schema version and per-table column order carried by
// a text tree. It is the single authority for both layouts: a store and a
// text tree are only interchangeable when their manifests match.
type Manifest struct {
	Version int     `yaml:"version"`
	Tables  []Table `yaml:"tables"`
}

// Current returns the manifest for the compiled-in registry.
func Current() Manifest {
	return Manifest{Version: Version, Tables: Tables()}
}

// Encode renders the manifest as YAML.
func (m Manifest) Encode() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return data, nil
}

// DecodeManifest parses a YAML manifest.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

// Diff compares m against the compiled-in registry and returns a description
// of the first difference, or "" when they match exactly.
func (m Manifest) Diff() string {
	if m.Version != Version {
		return fmt.Sprintf("schema version %d, want %d", m.Version, Version)
	}
	if len(m.Tables) != len(tables) {
		return fmt.Sprintf("%d tables, want %d", len(m.Tables), len(tables))
	}
	for i, t := range m.Tables {
		want := tables[i]
		if t.Name != want.Name {
			return fmt.Sprintf("table %d is %q, want %q", i, t.Name, want.Name)
		}
		if len(t.Columns) != len(want.Columns) {
			return fmt.Sprintf("table %q has %d columns, want %d", t.Name, len(t.Columns), len(want.Columns))
		}
		for j, c := range t.Columns {
			if c != want.Columns[j] {
				return fmt.Sprintf("table %q column %d is %s:%s, want %s:%s",
					t.Name, j, c.Name, c.Type, want.Columns[j].Name, want.Columns[j].Type)
			}
		}
	}
	return ""
}
