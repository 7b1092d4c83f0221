package metadata

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSV = "Virus name\tAccession ID\tLineage\tAA Substitutions\n" +
	"hCoV-19/Sweden/1/2024\tEPI_ISL_1\tJN.1 (consensus call)\t(Spike_F456L,Spike_R346T)\n" +
	"\n" +
	"hCoV-19/Sweden/2/2024\tEPI_ISL_2\tHK.22\t()\n" +
	"hCoV-19/Sweden/3/2024\tEPI_ISL_3\t\t(Spike_F486P,Spike_F456L,Spike_F490S)\r\n"

func TestParser_ParseRecords(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(sampleTSV))
	require.NoError(t, err)

	cols := p.Columns()
	assert.Equal(t, 0, cols.VirusName)
	assert.Equal(t, 2, cols.Lineage)
	assert.Equal(t, 3, cols.AASubstitutions)
	assert.Equal(t, []string{"Virus name", "Accession ID", "Lineage", "AA Substitutions"}, p.Header())

	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "hCoV-19/Sweden/1/2024", r.VirusName)
	assert.Equal(t, "JN.1", r.LineageToken())
	assert.Equal(t, "Spike_F456L,Spike_R346T", r.Substitutions())
	assert.Len(t, r.Fields, 4)
	assert.Equal(t, 2, r.Line)

	r, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, "HK.22", r.LineageToken())
	assert.Equal(t, "", r.Substitutions())
	assert.Equal(t, 4, r.Line)

	r, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, "", r.LineageToken())
	assert.Equal(t, "Spike_F486P,Spike_F456L,Spike_F490S", r.Substitutions())

	r, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParser_NoTrailingNewline(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader("Virus name\tLineage\tAA Substitutions\nv1\tKP.3\t(Spike_Q493E)"))
	require.NoError(t, err)

	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "KP.3", r.LineageToken())

	r, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParser_MissingColumn(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("Virus name\tPango lineage\tAA Substitutions\n"))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Message, "Lineage")
}

func TestParser_EmptyInput(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParser_ShortRow(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader("Virus name\tLineage\tAA Substitutions\nv1\tKP.3\n"))
	require.NoError(t, err)

	_, err = p.Next()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
}

func TestParser_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.tsv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleTSV))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	p, err := NewParser(path)
	require.NoError(t, err)
	defer p.Close()

	count := 0
	for {
		r, err := p.Next()
		require.NoError(t, err)
		if r == nil {
			break
		}
		count++
	}
	assert.Equal(t, 3, count)
}

func TestParser_NotFound(t *testing.T) {
	_, err := NewParser("/nonexistent/metadata.tsv")
	assert.Error(t, err)
}

func TestFindMetadataFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.tsv", "a.tsv.gz", "notes.md", ".hidden.tsv", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.tsv"), 0755))

	paths, err := FindMetadataFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.tsv.gz"),
		filepath.Join(dir, "b.tsv"),
		filepath.Join(dir, "c.txt"),
	}, paths)

	_, err = FindMetadataFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
