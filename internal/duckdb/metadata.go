package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// RecordTableSource stores the fingerprint of a reference table used by a run.
// role is "primary" or "monitoring".
func (s *Store) RecordTableSource(runID, role string, fp FileFingerprint) error {
	_, err := s.db.Exec(`INSERT INTO table_sources (run_id, role, path, size, mod_time) VALUES (?, ?, ?, ?, ?)`,
		runID, role, fp.Path, fp.Size, fp.ModTime.UTC())
	if err != nil {
		return fmt.Errorf("record table source: %w", err)
	}
	return nil
}

// TableSources returns the table fingerprints recorded for a run, keyed by role.
func (s *Store) TableSources(runID string) (map[string]FileFingerprint, error) {
	rows, err := s.db.Query(`SELECT role, path, size, mod_time FROM table_sources WHERE run_id=?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query table sources: %w", err)
	}
	defer rows.Close()

	out := make(map[string]FileFingerprint)
	for rows.Next() {
		var role string
		var fp FileFingerprint
		if err := rows.Scan(&role, &fp.Path, &fp.Size, &fp.ModTime); err != nil {
			return nil, fmt.Errorf("scan table source: %w", err)
		}
		out[role] = fp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table sources: %w", err)
	}
	return out, nil
}
