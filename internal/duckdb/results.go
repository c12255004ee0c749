package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/infofrac/internal/vcf"
)

// SiteResult is one computed INFO value for a site.
type SiteResult struct {
	Chrom string
	Pos   int64
	Ref   string
	Alt   string
	Key   string
	Value float64
}

// resultKey is the composite key for deduplicating site results before writing.
type resultKey struct {
	chrom, ref, alt, key string
	pos                  int64
}

// Summary aggregates the cached values of one INFO key.
type Summary struct {
	Key   string
	Count int64
	Mean  float64
	Min   float64
	Max   float64
}

// WriteSiteResults batch-inserts site results using the Appender API.
// Chromosome names are stored without a "chr" prefix. Within a batch the
// last result for a (chrom, pos, ref, alt, key) wins; existing rows are replaced.
func (s *Store) WriteSiteResults(results []SiteResult) error {
	if len(results) == 0 {
		return nil
	}

	index := make(map[resultKey]int, len(results))
	deduped := make([]SiteResult, 0, len(results))
	for _, r := range results {
		r.Chrom = vcf.NormalizeChrom(r.Chrom)
		k := resultKey{r.Chrom, r.Ref, r.Alt, r.Key, r.Pos}
		if i, ok := index[k]; ok {
			deduped[i] = r
			continue
		}
		index[k] = len(deduped)
		deduped = append(deduped, r)
	}

	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	// Leftovers from an interrupted merge would collide in INSERT OR REPLACE.
	if _, err := conn.ExecContext(ctx, `DELETE FROM site_annotations_staging`); err != nil {
		return fmt.Errorf("clear staging: %w", err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "site_annotations_staging")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for _, r := range deduped {
		if err := appender.AppendRow(r.Chrom, r.Pos, r.Ref, r.Alt, r.Key, r.Value); err != nil {
			appender.Close()
			return fmt.Errorf("append site result: %w", err)
		}
	}
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush appender: %w", err)
	}

	if _, err := conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO site_annotations SELECT * FROM site_annotations_staging`); err != nil {
		return fmt.Errorf("merge site results: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM site_annotations_staging`); err != nil {
		return fmt.Errorf("clear staging: %w", err)
	}
	return nil
}

// ClearSiteResults removes all cached site results.
func (s *Store) ClearSiteResults() error {
	_, err := s.db.Exec("DELETE FROM site_annotations")
	return err
}

// LookupSite returns the cached values for a site keyed by INFO key.
func (s *Store) LookupSite(chrom string, pos int64, ref, alt string) (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT key, value
		FROM site_annotations
		WHERE chrom=? AND pos=? AND ref=? AND alt=?`,
		vcf.NormalizeChrom(chrom), pos, ref, alt)
	if err != nil {
		return nil, fmt.Errorf("query site: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate site: %w", err)
	}
	return values, nil
}

// Summary returns count, mean, min and max of the cached values for key.
func (s *Store) Summary(key string) (Summary, error) {
	sum := Summary{Key: key}
	err := s.db.QueryRow(`SELECT count(*),
		coalesce(avg(value), 0), coalesce(min(value), 0), coalesce(max(value), 0)
		FROM site_annotations
		WHERE key=?`, key).Scan(&sum.Count, &sum.Mean, &sum.Min, &sum.Max)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize %s: %w", key, err)
	}
	return sum, nil
}

// Keys returns the distinct INFO keys present in the cache.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT key FROM site_annotations ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
