package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cruise-scraper/models"
)

const snapshotStamp = "20060102_150405"

// SnapshotWriter persists the raw and cleaned JSON documents of a run under
// <dataDir>/raw and <dataDir>/processed.
type SnapshotWriter struct {
	dataDir string
}

func NewSnapshotWriter(dataDir string) *SnapshotWriter {
	return &SnapshotWriter{dataDir: dataDir}
}

// Write stores both documents stamped with at and returns their paths.
func (s *SnapshotWriter) Write(raw *models.RawRecord, cleaned *models.CleanedRecord, at time.Time) (rawPath, cleanedPath string, err error) {
	stamp := at.Format(snapshotStamp)

	rawPath = filepath.Join(s.dataDir, "raw", "cruises_"+stamp+".json")
	if err := writeJSON(rawPath, raw); err != nil {
		return "", "", err
	}

	cleanedPath = filepath.Join(s.dataDir, "processed", "cruises_cleaned_"+stamp+".json")
	if err := writeJSON(cleanedPath, cleaned); err != nil {
		return rawPath, "", err
	}

	return rawPath, cleanedPath, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("snapshot: create dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: create %q: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		return fmt.Errorf("snapshot: encode %q: %w", path, err)
	}
	return f.Close()
}

// ReadCleanedRecord loads a processed snapshot.
func ReadCleanedRecord(path string) (*models.CleanedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %q: %w", path, err)
	}
	var rec models.CleanedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("snapshot: decode %q: %w", path, err)
	}
	return &rec, nil
}
