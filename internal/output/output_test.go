package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/inodb/vibe-voc/internal/metadata"
	"github.com/inodb/vibe-voc/internal/variant"
)

var header = []string{"Virus name", "Lineage", "AA Substitutions"}

func classified() (*metadata.Record, variant.MatchResult) {
	rec := &metadata.Record{
		VirusName: "hCoV-19/Sweden/1/2024",
		Fields:    []string{"hCoV-19/Sweden/1/2024", "JN.1", "(Spike_F456L)"},
	}
	res := variant.MatchResult{
		Primary: &variant.Match{Name: "BA.2.86", Classification: "VOI"},
		Monitoring: variant.MonitoringResult{
			Evaluated: true,
			Matches:   []variant.Match{{Name: "KP.3", Classification: "VUM"}},
		},
	}
	return rec, res
}

func TestTabWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	rec, res := classified()
	short := &metadata.Record{VirusName: "v2", Fields: []string{"v2"}}

	require.NoError(t, w.WriteHeader(header))
	require.NoError(t, w.Write(rec, res))
	require.NoError(t, w.Write(short, variant.MatchResult{}))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Virus name\tLineage\tAA Substitutions\tVariantClassification\tMonitoringClassification", lines[0])
	assert.Equal(t, "hCoV-19/Sweden/1/2024\tJN.1\t(Spike_F456L)\tBA.2.86 (VOI)\tKP.3 (VUM)", lines[1])

	fields := strings.Split(lines[2], "\t")
	require.Len(t, fields, 5)
	assert.Equal(t, variant.NotClassified, fields[3])
	assert.Equal(t, variant.NotEvaluated, fields[4])
}

func TestXLSXWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewXLSXWriter(&buf)

	rec, res := classified()
	require.NoError(t, w.WriteHeader(header))
	require.NoError(t, w.Write(rec, res))
	require.NoError(t, w.Flush())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ClassificationSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, append(append([]string{}, header...), AppendedColumns...), rows[0])
	require.Len(t, rows[1], 5)
	assert.Equal(t, "BA.2.86 (VOI)", rows[1][3])
	assert.Equal(t, "KP.3 (VUM)", rows[1][4])
}

func TestWriteReportTemplate(t *testing.T) {
	rows := []variant.ReportRow{
		{RecordID: "rec-1", VirusVariant: "BA.2.86"},
		{RecordID: "rec-2", VirusVariantOther: "HK.22"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReportTemplate(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(ReportSheet)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ReportColumns, got[0])

	cells := map[string]string{
		"A2": "rec-1", "B2": "BA.2.86", "C2": "",
		"A3": "rec-2", "B3": "", "C3": "HK.22",
	}
	for cell, want := range cells {
		v, err := f.GetCellValue(ReportSheet, cell)
		require.NoError(t, err)
		assert.Equal(t, want, v, cell)
	}
}

func TestWriteReportTemplateTab(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReportTemplateTab(&buf, []variant.ReportRow{
		{RecordID: "rec-2", VirusVariantOther: "HK.22"},
	}))
	assert.Equal(t, "RecordID\tVirusVariant\tVirusVariantOther\nrec-2\t\tHK.22\n", buf.String())
}
