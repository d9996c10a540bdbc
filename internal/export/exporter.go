// Package export writes report output as JSON files for the CLI.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// JSON writes data as indented JSON to filename, creating parent
// directories as needed.
func JSON(filename string, data any) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("JSON: create output directory: %w", err)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("JSON: create file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON: encode %s: %w", filename, err)
	}
	return nil
}

// TimestampedFilename builds "<base>/<name>_<yyyymmdd_hhmmss>.json".
func TimestampedFilename(baseDir, name string) string {
	ts := time.Now().Format("20060102_150405")
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.json", name, ts))
}
