// Package output provides writers for classified metadata and reporting templates.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/vibe-voc/internal/metadata"
	"github.com/inodb/vibe-voc/internal/variant"
)

// Columns appended to every classified row.
const (
	ColVariantClassification    = "VariantClassification"
	ColMonitoringClassification = "MonitoringClassification"
)

// AppendedColumns lists the classification columns in output order.
var AppendedColumns = []string{ColVariantClassification, ColMonitoringClassification}

// TabWriter writes classified records in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns int
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the input columns followed by the classification columns.
func (tw *TabWriter) WriteHeader(columns []string) error {
	tw.columns = len(columns)
	cols := append(append([]string{}, columns...), AppendedColumns...)
	_, err := tw.w.WriteString(joinTab(cols))
	return err
}

// Write writes a record with its classification.
func (tw *TabWriter) Write(rec *metadata.Record, res variant.MatchResult) error {
	values := rowValues(rec, tw.columns)
	values = append(values, res.PrimaryLabel(), res.MonitoringLabel())
	_, err := tw.w.WriteString(joinTab(values))
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// rowValues pads or truncates a record's fields to the header width so the
// appended columns line up.
func rowValues(rec *metadata.Record, width int) []string {
	if width == 0 {
		width = len(rec.Fields)
	}
	values := make([]string, width, width+len(AppendedColumns))
	copy(values, rec.Fields)
	return values
}

func joinTab(values []string) string {
	return strings.Join(values, "\t") + "\n"
}
