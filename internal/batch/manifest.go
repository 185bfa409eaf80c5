package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// IndexEntry represents one converted manifest in index.json.
type IndexEntry struct {
	Name     string   `json:"name"`
	Manifest string   `json:"manifest"`
	Frames   int      `json:"frames"`
	Outputs  []string `json:"outputs"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// WriteIndex writes index.json describing every job. Output paths are
// relative to the index file's directory.
func WriteIndex(path string, results []Result) error {
	dir := filepath.Dir(path)
	entries := make([]IndexEntry, len(results))
	for i, r := range results {
		outputs := make([]string, 0, len(r.Outputs))
		for _, o := range r.Outputs {
			if rel, err := filepath.Rel(dir, o); err == nil {
				o = filepath.ToSlash(rel)
			}
			outputs = append(outputs, o)
		}
		entries[i] = IndexEntry{
			Name:     r.Name,
			Manifest: r.Manifest,
			Frames:   r.Frames,
			Outputs:  outputs,
			Warnings: r.Warnings,
			Error:    r.Error,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
