package keys

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Entry is one keymap record. Paths are relative to the keymap directory.
type Entry struct {
	Private string `json:"private,omitempty"`
	Public  string `json:"public"`
	Active  bool   `json:"active"`
}

// Keymap maps key identifiers to their material.
type Keymap map[string]Entry

// ReadKeymap parses the keymap file at path.
func ReadKeymap(path string) (Keymap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keymap: %w", err)
	}
	var km Keymap
	if err := json.Unmarshal(data, &km); err != nil {
		return nil, fmt.Errorf("parse keymap: %w", err)
	}
	return km, nil
}

// WriteKeymap stores km as indented JSON at path.
func WriteKeymap(path string, km Keymap) error {
	data, err := json.MarshalIndent(km, "", "  ")
	if err != nil {
		return fmt.Errorf("encode keymap: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write keymap: %w", err)
	}
	return os.Rename(tmp, path)
}

// ActiveID returns the identifier of the single active entry. Zero or
// several active entries yield ErrNoActiveKey.
func (km Keymap) ActiveID() (string, error) {
	var active []string
	for kid, e := range km {
		if e.Active {
			active = append(active, kid)
		}
	}
	switch len(active) {
	case 1:
		return active[0], nil
	case 0:
		return "", ErrNoActiveKey
	default:
		sort.Strings(active)
		return "", fmt.Errorf("%w: %d entries marked active %v", ErrNoActiveKey, len(active), active)
	}
}

// IDs returns the identifiers in sorted order.
func (km Keymap) IDs() []string {
	ids := make([]string, 0, len(km))
	for kid := range km {
		ids = append(ids, kid)
	}
	sort.Strings(ids)
	return ids
}

func resolve(dir, ref string) string {
	if ref == "" || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(dir, ref)
}
