// Package metadata provides parsing of tab-separated sequencing metadata files
// (GISAID-style exports) for batch variant classification.
package metadata

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Metadata column names.
const (
	ColVirusName       = "Virus name"
	ColLineage         = "Lineage"
	ColAASubstitutions = "AA Substitutions"
)

// ColumnIndices holds the indices of the columns used for classification.
type ColumnIndices struct {
	VirusName       int
	Lineage         int
	AASubstitutions int
}

// Record is one metadata row.
type Record struct {
	Line            int
	VirusName       string
	Lineage         string
	AASubstitutions string
	Fields          []string // all original fields in header order
}

// LineageToken returns the first whitespace-delimited token of the lineage
// field, e.g. "JN.1" for "JN.1 (consensus call)".
func (r *Record) LineageToken() string {
	f := strings.Fields(r.Lineage)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// Substitutions returns the substitution list without its surrounding parentheses.
func (r *Record) Substitutions() string {
	return strings.Trim(strings.TrimSpace(r.AASubstitutions), "()")
}

// RecordParser reads metadata records.
type RecordParser interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Header returns the column names.
	Header() []string

	// Close closes the parser and releases resources.
	Close() error
}

// Parser reads records from a metadata TSV file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	columns    ColumnIndices
	header     []string
}

// NewParser creates a new metadata parser for the given file.
// Supports both plain and gzipped (.tsv.gz) files. "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata file: %w", err)
	}

	p := &Parser{file: file}

	buf := make([]byte, 2)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read metadata header: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek metadata file: %w", err)
	}

	// gzip magic number (0x1f, 0x8b)
	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// parseHeader reads the first non-empty line and locates the required columns.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return &ParseError{
					Line:    p.lineNumber,
					Message: "no header line found",
				}
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		line = strings.TrimPrefix(line, "\ufeff")
		if line == "" {
			continue
		}

		p.header = strings.Split(line, "\t")
		return p.parseColumnIndices()
	}
}

func (p *Parser) parseColumnIndices() error {
	p.columns = ColumnIndices{VirusName: -1, Lineage: -1, AASubstitutions: -1}

	for i, col := range p.header {
		switch strings.TrimSpace(col) {
		case ColVirusName:
			p.columns.VirusName = i
		case ColLineage:
			p.columns.Lineage = i
		case ColAASubstitutions:
			p.columns.AASubstitutions = i
		}
	}

	for _, req := range []struct {
		idx  int
		name string
	}{
		{p.columns.VirusName, ColVirusName},
		{p.columns.Lineage, ColLineage},
		{p.columns.AASubstitutions, ColAASubstitutions},
	} {
		if req.idx == -1 {
			return &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("required column '%s' not found in header", req.name),
			}
		}
	}
	return nil
}

// Next reads the next record. Blank lines are skipped.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read metadata line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		return p.parseLine(line)
	}
}

func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")

	minCols := max(p.columns.VirusName, p.columns.Lineage, p.columns.AASubstitutions)
	if len(fields) <= minCols {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minCols+1, len(fields)),
		}
	}

	return &Record{
		Line:            p.lineNumber,
		VirusName:       strings.TrimSpace(fields[p.columns.VirusName]),
		Lineage:         fields[p.columns.Lineage],
		AASubstitutions: fields[p.columns.AASubstitutions],
		Fields:          fields,
	}, nil
}

// Header returns the column names of the file.
func (p *Parser) Header() []string {
	return p.header
}

// Columns returns the parsed column indices.
func (p *Parser) Columns() ColumnIndices {
	return p.columns
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during metadata parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("metadata parse error at line %d: %s", e.Line, e.Message)
}
