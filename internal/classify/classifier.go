// Package classify maps surveillance records to named variants using a
// primary reference table and an optional monitoring table.
package classify

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/inodb/vibe-voc/internal/metadata"
	"github.com/inodb/vibe-voc/internal/variant"
)

// Classifier evaluates queries against the primary and monitoring tables.
// Tables are read-only after construction so a Classifier is safe for
// concurrent use.
type Classifier struct {
	primary    *variant.Table
	monitoring *variant.Table // nil when not supplied
	logger     *zap.Logger
}

// NewClassifier creates a classifier. monitoring may be nil, in which case
// monitoring results are reported as not evaluated.
func NewClassifier(primary, monitoring *variant.Table) *Classifier {
	return &Classifier{
		primary:    primary,
		monitoring: monitoring,
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (c *Classifier) SetLogger(l *zap.Logger) {
	c.logger = l
}

// HasMonitoring reports whether a monitoring table was supplied.
func (c *Classifier) HasMonitoring() bool {
	return c.monitoring != nil
}

// Classify matches q against both tables. When report is non-nil and q
// carries a record ID, the primary outcome is attached to report.
func (c *Classifier) Classify(q variant.Query, report *variant.ReportTemplate) variant.MatchResult {
	var res variant.MatchResult
	if m, ok := c.primary.Match(q); ok {
		res.Primary = &m
	}
	res.Monitoring = variant.MatchMonitoring(c.monitoring, q)
	report.Attach(q, res.Primary)
	return res
}

// QueryFor builds the query for a metadata record.
func QueryFor(rec *metadata.Record) variant.Query {
	return variant.NewQuery(rec.LineageToken(), rec.Substitutions(), rec.VirusName)
}

// ResultWriter receives classified records in input order.
type ResultWriter interface {
	WriteHeader(columns []string) error
	Write(rec *metadata.Record, res variant.MatchResult) error
	Flush() error
}

// Progress is notified once per classified record.
type Progress interface {
	Increment()
}

// Stats summarizes a batch run.
type Stats struct {
	Records    int
	Classified int
	Monitored  int
}

// Options configures ClassifyAll.
type Options struct {
	Workers  int // 0 uses runtime.NumCPU()
	Report   *variant.ReportTemplate
	Progress Progress
	// OnResult, if set, is called for every result after it is written.
	OnResult func(rec *metadata.Record, res variant.MatchResult) error
}

// ClassifyAll classifies every record from parser and writes results in
// input order. Rows are classified in parallel.
func (c *Classifier) ClassifyAll(ctx context.Context, parser metadata.RecordParser, writer ResultWriter, opts Options) (Stats, error) {
	var stats Stats

	if err := writer.WriteHeader(parser.Header()); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	items := make(chan WorkItem, 2*workers)
	var parseErr error

	go func() {
		defer close(items)
		seq := 0
		for {
			if err := ctx.Err(); err != nil {
				parseErr = err
				return
			}
			rec, err := parser.Next()
			if err != nil {
				parseErr = fmt.Errorf("read record: %w", err)
				return
			}
			if rec == nil {
				return
			}
			select {
			case items <- WorkItem{Seq: seq, Record: rec}:
				seq++
			case <-ctx.Done():
				parseErr = ctx.Err()
				return
			}
		}
	}()

	results := c.ParallelClassify(items, workers)

	if err := OrderedCollect(results, func(r WorkResult) error {
		stats.Records++
		opts.Report.Attach(r.Query, r.Result.Primary)
		if r.Result.Classified() {
			stats.Classified++
		}
		if r.Result.Monitoring.Status() == variant.MonitoringMatched {
			stats.Monitored++
		}
		if err := writer.Write(r.Record, r.Result); err != nil {
			return fmt.Errorf("write record %s: %w", r.Record.VirusName, err)
		}
		if opts.OnResult != nil {
			if err := opts.OnResult(r.Record, r.Result); err != nil {
				return err
			}
		}
		if opts.Progress != nil {
			opts.Progress.Increment()
		}
		return nil
	}); err != nil {
		return stats, err
	}

	if parseErr != nil {
		return stats, parseErr
	}

	if stats.Records == 0 {
		c.logger.Info("0 records processed")
	}
	c.logger.Debug("batch classified",
		zap.Int("records", stats.Records),
		zap.Int("classified", stats.Classified),
		zap.Int("monitored", stats.Monitored))

	return stats, writer.Flush()
}
