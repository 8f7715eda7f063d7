package mapping

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"sort"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/goccy/go-yaml"
)

//go:embed tables/*.yaml
var builtin embed.FS

// Backends lists the backends with built-in tables.
func Backends() []string {
	entries, _ := builtin.ReadDir("tables")
	var names []string
	for _, e := range entries {
		names = append(names, e.Name()[:len(e.Name())-len(".yaml")])
	}
	sort.Strings(names)
	return names
}

// Builtin loads the built-in tables for backend.
func Builtin(backend string) (*Tables, error) {
	data, err := builtin.ReadFile("tables/" + backend + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("mapping: no tables for backend %q", backend)
	}
	return Load(data)
}

// Load parses a YAML table document.
func Load(data []byte) (*Tables, error) {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("mapping: %w", err)
	}
	return fromJSON(js)
}

// LoadFile parses a YAML table file.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// Overlay returns new tables with patch applied to t. A patch whose top
// level is a mapping is a merge patch: its entries replace or add to the
// base, and a null entry removes one. A patch whose top level is a
// sequence is a list of JSON Patch operations.
func (t *Tables) Overlay(patch []byte) (*Tables, error) {
	js, err := yaml.YAMLToJSON(patch)
	if err != nil {
		return nil, fmt.Errorf("mapping: overlay: %w", err)
	}
	js = bytes.TrimSpace(js)
	var merged []byte
	if len(js) > 0 && js[0] == '[' {
		ops, err := jsonpatch.DecodePatch(js)
		if err != nil {
			return nil, fmt.Errorf("mapping: overlay: %w", err)
		}
		merged, err = ops.Apply(t.raw)
		if err != nil {
			return nil, fmt.Errorf("mapping: overlay: %w", err)
		}
	} else {
		merged, err = jsonpatch.MergePatch(t.raw, js)
		if err != nil {
			return nil, fmt.Errorf("mapping: overlay: %w", err)
		}
	}
	return fromJSON(merged)
}

// OverlayFile applies the overlay stored at path.
func (t *Tables) OverlayFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return t.Overlay(data)
}

// YAML renders the tables as a YAML document.
func (t *Tables) YAML() ([]byte, error) {
	return yaml.JSONToYAML(t.raw)
}

func fromJSON(js []byte) (*Tables, error) {
	t := &Tables{}
	if err := yaml.Unmarshal(js, t); err != nil {
		return nil, fmt.Errorf("mapping: %w", err)
	}
	t.raw = js
	if err := t.prepare(); err != nil {
		return nil, err
	}
	return t, nil
}
