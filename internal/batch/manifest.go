package batch

import (
	"encoding/json"
	"fmt"
	"os"
)

// ManifestEntry describes one rendered character.
type ManifestEntry struct {
	Job    string            `json:"job"`
	Source string            `json:"source"`
	Name   string            `json:"name,omitempty"`
	Author string            `json:"author,omitempty"`
	Images map[string]string `json:"images,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Manifest converts results into manifest entries, keeping job order.
func Manifest(results []Result) []ManifestEntry {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Job:    r.Job.Name,
			Source: r.Job.Source,
			Name:   r.Name,
			Author: r.Author,
			Error:  r.Error,
		}
		if len(r.Images) > 0 {
			entries[i].Images = r.Images
		}
	}
	return entries
}

// WriteManifest writes the results as indented JSON to path.
func WriteManifest(path string, results []Result) error {
	data, err := json.MarshalIndent(Manifest(results), "", "  ")
	if err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	return nil
}
