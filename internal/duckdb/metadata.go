package duckdb

import (
	"database/sql"
	"errors"
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

// SourceRecord describes an input file whose sites were cached.
type SourceRecord struct {
	FileFingerprint
	Sites      int64
	Failed     int64
	RecordedAt time.Time
}

// RecordSource stores the fingerprint of an annotated input file,
// replacing any earlier record for the same path.
func (s *Store) RecordSource(fp FileFingerprint, sites, failed int) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO annotation_sources
		(path, size, mod_time, sites, failed, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fp.Path, fp.Size, fp.ModTime.UTC(), int64(sites), int64(failed), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record source %s: %w", fp.Path, err)
	}
	return nil
}

// SourceUpToDate reports whether fp matches the recorded fingerprint for its path.
func (s *Store) SourceUpToDate(fp FileFingerprint) (bool, error) {
	var size int64
	var modTime time.Time
	err := s.db.QueryRow(`SELECT size, mod_time FROM annotation_sources WHERE path=?`, fp.Path).
		Scan(&size, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query source %s: %w", fp.Path, err)
	}
	return size == fp.Size && modTime.Equal(fp.ModTime.UTC().Truncate(time.Microsecond)), nil
}

// Sources returns all recorded input files ordered by path.
func (s *Store) Sources() ([]SourceRecord, error) {
	rows, err := s.db.Query(`SELECT path, size, mod_time, sites, failed, recorded_at
		FROM annotation_sources ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var records []SourceRecord
	for rows.Next() {
		var r SourceRecord
		if err := rows.Scan(&r.Path, &r.Size, &r.ModTime, &r.Sites, &r.Failed, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
