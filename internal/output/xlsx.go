package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/inodb/vibe-voc/internal/metadata"
	"github.com/inodb/vibe-voc/internal/variant"
)

// Sheet names.
const (
	ClassificationSheet = "Classification"
	ReportSheet         = "Report"
)

// XLSXWriter writes classified records to a spreadsheet. Rows are buffered
// in the workbook and written to the destination on Flush.
type XLSXWriter struct {
	dest    io.Writer
	f       *excelize.File
	columns int
	row     int
}

// NewXLSXWriter creates a spreadsheet writer.
func NewXLSXWriter(w io.Writer) *XLSXWriter {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", ClassificationSheet)
	return &XLSXWriter{dest: w, f: f}
}

// WriteHeader writes the input columns followed by the classification columns.
func (xw *XLSXWriter) WriteHeader(columns []string) error {
	xw.columns = len(columns)
	cols := append(append([]string{}, columns...), AppendedColumns...)
	if err := writeHeaderRow(xw.f, ClassificationSheet, cols); err != nil {
		return err
	}
	xw.row = 1
	return nil
}

// Write writes a record with its classification.
func (xw *XLSXWriter) Write(rec *metadata.Record, res variant.MatchResult) error {
	values := rowValues(rec, xw.columns)
	values = append(values, res.PrimaryLabel(), res.MonitoringLabel())
	xw.row++
	return setRow(xw.f, ClassificationSheet, xw.row, values)
}

// Flush writes the workbook to the destination.
func (xw *XLSXWriter) Flush() error {
	defer xw.f.Close()
	if xw.columns > 0 {
		last, _ := excelize.ColumnNumberToName(xw.columns + len(AppendedColumns))
		xw.f.SetColWidth(ClassificationSheet, "A", last, 18)
	}
	if _, err := xw.f.WriteTo(xw.dest); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReportColumns are the reporting template headers.
var ReportColumns = []string{"RecordID", variant.FieldVirusVariant, variant.FieldVirusVariantOther}

// WriteReportTemplate writes reporting-template rows as a spreadsheet.
func WriteReportTemplate(w io.Writer, rows []variant.ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", ReportSheet)

	if err := writeHeaderRow(f, ReportSheet, ReportColumns); err != nil {
		return err
	}
	for i, r := range rows {
		if err := setRow(f, ReportSheet, i+2, []string{r.RecordID, r.VirusVariant, r.VirusVariantOther}); err != nil {
			return err
		}
	}
	f.SetColWidth(ReportSheet, "A", "A", 40)
	f.SetColWidth(ReportSheet, "B", "C", 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write report template: %w", err)
	}
	return nil
}

// WriteReportTemplateTab writes reporting-template rows as TSV.
func WriteReportTemplateTab(w io.Writer, rows []variant.ReportRow) error {
	tw := NewTabWriter(w)
	if _, err := tw.w.WriteString(joinTab(ReportColumns)); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := tw.w.WriteString(joinTab([]string{r.RecordID, r.VirusVariant, r.VirusVariantOther})); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeHeaderRow(f *excelize.File, sheet string, cols []string) error {
	if err := setRow(f, sheet, 1, cols); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	return f.SetRowStyle(sheet, 1, 1, style)
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
