// Package atomicfile implements crash-safe JSON file writes: write to a
// sibling temp file, then rename over the target. Used by every package that
// persists state to disk (loop engine checkpoints, entity stores,
// orchestrator snapshots, backups).
package atomicfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSON serializes v as pretty-printed JSON and writes it to path
// atomically: the data lands in a sibling ".tmp-<base>" file first, which is
// then renamed over path. Parent directories are created as needed.
func WriteJSON(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("atomicfile: mkdir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("atomicfile: marshal: %w", err)
	}

	tmp := filepath.Join(dir, ".tmp-"+filepath.Base(path))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("atomicfile: write temp %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("atomicfile: rename %s -> %s: %w", tmp, path, err)
	}
	return nil
}

// ReadJSON deserializes path into v. Returns an error (including the raw
// os.IsNotExist case) if the file does not exist.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("atomicfile: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("atomicfile: unmarshal %s: %w", path, err)
	}
	return nil
}
