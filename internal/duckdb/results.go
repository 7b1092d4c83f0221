package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-voc/internal/variant"
)

// Run describes one batch classification.
type Run struct {
	ID               string
	StartedAt        time.Time
	Input            string
	PrimarySource    string
	MonitoringSource string
}

// ResultRow is the stored outcome for one record.
type ResultRow struct {
	RecordID       string
	Lineage        string
	Mutations      string
	Variant        string // empty when not classified
	Classification string
	Monitoring     string
}

// NewResultRow flattens a query and its result for storage.
func NewResultRow(q variant.Query, res variant.MatchResult) ResultRow {
	row := ResultRow{
		RecordID:   q.RecordID,
		Lineage:    q.Lineage,
		Mutations:  strings.Join(q.Mutations.Sorted(), ","),
		Monitoring: res.MonitoringLabel(),
	}
	if res.Primary != nil {
		row.Variant = res.Primary.Name
		row.Classification = res.Primary.Classification
	}
	return row
}

// BeginRun registers a new run and returns it with a fresh ID.
func (s *Store) BeginRun(input, primarySource, monitoringSource string) (Run, error) {
	r := Run{
		ID:               uuid.NewString(),
		StartedAt:        time.Now().UTC(),
		Input:            input,
		PrimarySource:    primarySource,
		MonitoringSource: monitoringSource,
	}
	_, err := s.db.Exec(`INSERT INTO classification_runs (run_id, started_at, input, primary_source, monitoring_source)
		VALUES (?, ?, ?, ?, ?)`, r.ID, r.StartedAt, r.Input, r.PrimarySource, r.MonitoringSource)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return r, nil
}

// Runs returns all runs, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT run_id, started_at, input, primary_source, monitoring_source
		FROM classification_runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Input, &r.PrimarySource, &r.MonitoringSource); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// WriteResults batch-inserts results for a run using the Appender API.
func (s *Store) WriteResults(runID string, results []ResultRow) error {
	if len(results) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "classification_results")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range results {
		if err := appender.AppendRow(
			runID, r.RecordID, r.Lineage, r.Mutations,
			r.Variant, r.Classification, r.Monitoring,
		); err != nil {
			return fmt.Errorf("append result: %w", err)
		}
	}

	return appender.Flush()
}

// VariantCount is the number of records assigned to a variant in a run.
type VariantCount struct {
	Variant        string
	Classification string
	Count          int64
}

// CountByVariant summarizes a run's primary classifications, largest first.
// Unclassified records are reported under variant.NotClassified.
func (s *Store) CountByVariant(runID string) ([]VariantCount, error) {
	rows, err := s.db.Query(`SELECT variant, classification, count(*) AS n
		FROM classification_results
		WHERE run_id=?
		GROUP BY variant, classification
		ORDER BY n DESC, variant`, runID)
	if err != nil {
		return nil, fmt.Errorf("query variant counts: %w", err)
	}
	defer rows.Close()

	var counts []VariantCount
	for rows.Next() {
		var c VariantCount
		if err := rows.Scan(&c.Variant, &c.Classification, &c.Count); err != nil {
			return nil, fmt.Errorf("scan variant count: %w", err)
		}
		if c.Variant == "" {
			c.Variant = variant.NotClassified
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant counts: %w", err)
	}
	return counts, nil
}

// LookupRecord returns every stored result for a record across runs.
func (s *Store) LookupRecord(recordID string) ([]ResultRow, error) {
	rows, err := s.db.Query(`SELECT r.record_id, r.lineage, r.mutations, r.variant, r.classification, r.monitoring
		FROM classification_results r
		JOIN classification_runs c ON c.run_id = r.run_id
		WHERE r.record_id=?
		ORDER BY c.started_at`, recordID)
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	defer rows.Close()

	var out []ResultRow
	for rows.Next() {
		var r ResultRow
		if err := rows.Scan(&r.RecordID, &r.Lineage, &r.Mutations, &r.Variant, &r.Classification, &r.Monitoring); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record: %w", err)
	}
	return out, nil
}

// ClearResults removes all stored runs and results.
func (s *Store) ClearResults() error {
	for _, tbl := range []string{"classification_results", "table_sources", "classification_runs"} {
		if _, err := s.db.Exec("DELETE FROM " + tbl); err != nil {
			return err
		}
	}
	return nil
}
