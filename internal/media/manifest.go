// Package media maps logical media names used by questions to object paths
// and turns them into client URLs.
package media

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Manifest maps a logical media name ("apple") to an object path
// ("images/apple.jpg").
type Manifest map[string]string

// LoadManifest reads a JSON object of name → path
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read media manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse media manifest: %w", err)
	}
	for name, p := range m {
		if p == "" {
			return nil, fmt.Errorf("media manifest entry %q has no path", name)
		}
	}
	return m, nil
}

// Lookup returns the object path for name
func (m Manifest) Lookup(name string) (string, bool) {
	p, ok := m[name]
	return p, ok
}

// Names returns the logical names in sorted order
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes the manifest as indented JSON
func (m Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode media manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write media manifest: %w", err)
	}
	return nil
}
