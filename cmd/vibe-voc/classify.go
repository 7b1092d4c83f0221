package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/zap"

	"github.com/inodb/vibe-voc/internal/classify"
	"github.com/inodb/vibe-voc/internal/duckdb"
	"github.com/inodb/vibe-voc/internal/metadata"
	"github.com/inodb/vibe-voc/internal/output"
	"github.com/inodb/vibe-voc/internal/variant"
)

// resultBatchSize is the number of rows buffered before appending to the results store.
const resultBatchSize = 10000

func newClassifyCmd() *cobra.Command {
	var (
		outputFile string
		reportFile string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "classify [flags] <metadata-file-or-dir>...",
		Short: "Classify surveillance metadata against variant tables",
		Long: `Classify every record of one or more surveillance metadata files.

Input files are tab-separated (optionally gzipped) with at least the columns
"Virus name", "Lineage" and "AA Substitutions". A directory argument expands
to the metadata files it contains. Each output row is the input row followed
by the VariantClassification and MonitoringClassification columns.`,
		Example: `  vibe-voc classify metadata.tsv
  vibe-voc classify --monitoring monitoring.csv -o classified.tsv metadata.tsv.gz
  vibe-voc classify --format xlsx -o classified.xlsx --report report.xlsx exports/
  vibe-voc classify --results-db ~/.vibe-voc/results.duckdb metadata.tsv`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"primary":    "tables.primary",
				"monitoring": "tables.monitoring",
				"workers":    "classify.workers",
				"format":     "output.format",
				"results-db": "results.db",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, args, outputFile, reportFile, noProgress)
		},
	}

	cmd.Flags().String("primary", "", "Primary variant table (path or URL)")
	cmd.Flags().String("monitoring", "", "Monitoring variant table (path or URL)")
	cmd.Flags().Int("workers", 0, "Number of classification workers (0 = all CPUs)")
	cmd.Flags().String("format", "tsv", "Output format: tsv, xlsx")
	cmd.Flags().String("results-db", "", "Store results in this DuckDB database")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&reportFile, "report", "", "Write a reporting template (.xlsx or .tsv)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string, outputFile, reportFile string, noProgress bool) error {
	ctx := cmd.Context()

	inputs, err := expandInputs(args)
	if err != nil {
		return err
	}

	format := viper.GetString("output.format")
	if strings.HasSuffix(strings.ToLower(outputFile), ".xlsx") {
		format = "xlsx"
	}
	if format == "xlsx" && outputFile == "" {
		return usageErrorf("xlsx output requires --output")
	}

	tables, err := loadTables(ctx, newTableLoader())
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w, err := newResultWriter(format, out)
	if err != nil {
		return err
	}
	writer := &batchWriter{w: w}

	c := classify.NewClassifier(tables.Primary, tables.Monitoring)
	c.SetLogger(logger)

	opts := classify.Options{Workers: viper.GetInt("classify.workers")}
	if reportFile != "" {
		opts.Report = variant.NewReportTemplate()
	}

	var sink *resultSink
	if dbPath := viper.GetString("results.db"); dbPath != "" {
		sink, err = openResultSink(dbPath, strings.Join(inputs, ","), tables)
		if err != nil {
			return err
		}
		defer sink.Close()
		opts.OnResult = sink.Add
	}

	var progress *mpb.Progress
	var bar *mpb.Bar
	if viper.GetBool("classify.progress") && !noProgress {
		progress = mpb.New(mpb.WithOutput(cmd.ErrOrStderr()))
		bar = progress.AddSpinner(0,
			mpb.PrependDecorators(
				decor.Name("classify "),
				decor.CurrentNoUnit("%d records"),
			),
			mpb.AppendDecorators(decor.OnComplete(decor.Elapsed(decor.ET_STYLE_GO), "done")),
		)
		opts.Progress = bar
	}

	total, err := classifyInputs(ctx, c, inputs, writer, opts)
	if bar != nil {
		if err != nil {
			bar.Abort(false)
		} else {
			bar.SetTotal(-1, true)
		}
		progress.Wait()
	}
	if err != nil {
		return err
	}

	if err := writer.Finish(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if opts.Report != nil {
		if err := writeReport(reportFile, opts.Report); err != nil {
			return err
		}
	}

	if sink != nil {
		if err := sink.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Results stored as run %s\n", sink.runID)
	}

	logger.Info("classification complete",
		zap.Int("files", len(inputs)),
		zap.Int("records", total.Records),
		zap.Int("classified", total.Classified),
		zap.Int("monitored", total.Monitored))
	fmt.Fprintf(cmd.ErrOrStderr(), "Classified %d of %d records\n", total.Classified, total.Records)
	return nil
}

// expandInputs replaces directory arguments with the metadata files inside them.
func expandInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}
		files, err := metadata.FindMetadataFiles(arg)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no metadata files found in %s", arg)
		}
		inputs = append(inputs, files...)
	}
	return inputs, nil
}

func classifyInputs(ctx context.Context, c *classify.Classifier, inputs []string, w classify.ResultWriter, opts classify.Options) (classify.Stats, error) {
	var total classify.Stats
	for _, path := range inputs {
		parser, err := metadata.NewParser(path)
		if err != nil {
			return total, fmt.Errorf("%s: %w", path, err)
		}

		stats, err := c.ClassifyAll(ctx, parser, w, opts)
		parser.Close()
		total.Records += stats.Records
		total.Classified += stats.Classified
		total.Monitored += stats.Monitored
		if err != nil {
			return total, fmt.Errorf("%s: %w", path, err)
		}

		logger.Debug("classified file",
			zap.String("file", path),
			zap.Int("records", stats.Records))
	}
	return total, nil
}

func newResultWriter(format string, w io.Writer) (classify.ResultWriter, error) {
	switch format {
	case "tsv", "tab":
		return output.NewTabWriter(w), nil
	case "xlsx":
		return output.NewXLSXWriter(w), nil
	default:
		return nil, usageErrorf("unknown output format %q", format)
	}
}

// batchWriter lets several inputs share one output. The header is written
// once and the underlying writer is only flushed by Finish.
type batchWriter struct {
	w      classify.ResultWriter
	header []string
}

func (b *batchWriter) WriteHeader(columns []string) error {
	if b.header == nil {
		b.header = columns
		return b.w.WriteHeader(columns)
	}
	if !slices.Equal(b.header, columns) {
		return fmt.Errorf("columns differ from the first input")
	}
	return nil
}

func (b *batchWriter) Write(rec *metadata.Record, res variant.MatchResult) error {
	return b.w.Write(rec, res)
}

func (b *batchWriter) Flush() error { return nil }

// Finish flushes the underlying writer.
func (b *batchWriter) Finish() error {
	return b.w.Flush()
}

func writeReport(path string, report *variant.ReportTemplate) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		err = output.WriteReportTemplate(f, report.Rows())
	} else {
		err = output.WriteReportTemplateTab(f, report.Rows())
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return f.Close()
}

// resultSink buffers results and appends them to the results store.
type resultSink struct {
	store *duckdb.Store
	runID string
	buf   []duckdb.ResultRow
}

func openResultSink(dbPath, input string, tables *tableSet) (*resultSink, error) {
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening results store: %w", err)
	}

	run, err := store.BeginRun(input, tables.PrimarySource, tables.MonitoringSource)
	if err != nil {
		store.Close()
		return nil, err
	}

	for role, src := range map[string]string{"primary": tables.PrimarySource, "monitoring": tables.MonitoringSource} {
		if src == "" {
			continue
		}
		fp, err := duckdb.StatFile(src)
		if err != nil {
			// URL sources have no on-disk fingerprint.
			continue
		}
		if err := store.RecordTableSource(run.ID, role, fp); err != nil {
			store.Close()
			return nil, err
		}
	}

	return &resultSink{store: store, runID: run.ID}, nil
}

func (s *resultSink) Add(rec *metadata.Record, res variant.MatchResult) error {
	s.buf = append(s.buf, duckdb.NewResultRow(classify.QueryFor(rec), res))
	if len(s.buf) >= resultBatchSize {
		return s.Flush()
	}
	return nil
}

func (s *resultSink) Flush() error {
	if err := s.store.WriteResults(s.runID, s.buf); err != nil {
		return fmt.Errorf("storing results: %w", err)
	}
	s.buf = s.buf[:0]
	return nil
}

func (s *resultSink) Close() error {
	return s.store.Close()
}
