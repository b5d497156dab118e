package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Role    string // e.g. "vcf", "features"
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(role, path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Role:    role,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// RecordInputs stores the fingerprints of the files a report was built from.
func (s *Store) RecordInputs(fps ...FileFingerprint) error {
	for _, fp := range fps {
		if _, err := s.db.Exec(
			`INSERT INTO input_files (role, path, size, mod_time) VALUES (?, ?, ?, ?)`,
			fp.Role, fp.Path, fp.Size, fp.ModTime.UTC(),
		); err != nil {
			return fmt.Errorf("record input %s: %w", fp.Path, err)
		}
	}
	return nil
}

// Inputs returns the recorded input fingerprints.
func (s *Store) Inputs() ([]FileFingerprint, error) {
	rows, err := s.db.Query(`SELECT role, path, size, mod_time FROM input_files ORDER BY role, path`)
	if err != nil {
		return nil, fmt.Errorf("query inputs: %w", err)
	}
	defer rows.Close()

	var out []FileFingerprint
	for rows.Next() {
		var fp FileFingerprint
		if err := rows.Scan(&fp.Role, &fp.Path, &fp.Size, &fp.ModTime); err != nil {
			return nil, fmt.Errorf("scan input: %w", err)
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}
