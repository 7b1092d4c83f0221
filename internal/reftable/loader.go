// Package reftable loads reference variant tables from CSV files or URLs.
package reftable

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"go.uber.org/zap"

	"github.com/inodb/vibe-voc/internal/variant"
)

// Reference table column names.
const (
	ColVirusVariant       = "VirusVariant"
	ColSublineages        = "included sub-lineages"
	ColClassification     = "ECDCClassification"
	ColLineageMutations   = "LineageMutations"
	sublineageSeparator   = "|"
	defaultRequestTimeout = 5 * time.Minute
)

// Published ECDC tables.
const (
	ECDCMappingsURL = "https://www.ecdc.europa.eu/sites/default/files/documents/PathogenVariant_public_mappings.csv"
	ECDCStaticURL   = "https://raw.githubusercontent.com/erikalmecdc/ECDC_variants/main/data/PathogenVariant_info.csv"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// missingValues are cell contents treated as empty.
var missingValues = []string{"", "NaN", "nan", "NA", "null", "None"}

// SchemaError reports a required column absent from a table.
type SchemaError struct {
	Source string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.Source, e.Column)
}

// Loader reads reference tables.
type Loader struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewLoader creates a loader with a default HTTP client.
func NewLoader() *Loader {
	return &Loader{
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for warnings about malformed rows.
func (l *Loader) SetLogger(lg *zap.Logger) {
	l.logger = lg
}

// SetHTTPClient replaces the client used for URL sources.
func (l *Loader) SetHTTPClient(c *http.Client) {
	l.httpClient = c
}

// IsURL reports whether source should be fetched over HTTP.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load reads a table from a local path or an http(s) URL.
func (l *Loader) Load(ctx context.Context, source string) (*variant.Table, error) {
	rc, err := l.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return l.Parse(source, data)
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !IsURL(source) {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open variant table: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error %d fetching %s: %s", resp.StatusCode, source, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}

// Parse reads a comma-separated table. name identifies the source in errors.
func (l *Loader) Parse(name string, data []byte) (*variant.Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	header, hasRows, err := peekHeader(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	cols := make(map[string]bool, len(header))
	for _, c := range header {
		cols[c] = true
	}
	for _, req := range []string{ColVirusVariant, ColSublineages, ColClassification} {
		if !cols[req] {
			return nil, &SchemaError{Source: name, Column: req}
		}
	}

	table := variant.NewTable()
	if !hasRows {
		return table, nil
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, df.Err)
	}

	names := df.Col(ColVirusVariant).Records()
	subs := df.Col(ColSublineages).Records()
	classes := df.Col(ColClassification).Records()
	var rules []string
	if cols[ColLineageMutations] {
		rules = df.Col(ColLineageMutations).Records()
	}

	for i, n := range names {
		e := &variant.Entry{
			Name:           strings.TrimSpace(n),
			Classification: cellValue(classes[i]),
			Sublineages:    splitSublineages(subs[i]),
		}
		if rules != nil {
			if err := parseRules(rules[i], &e.Rules); err != nil {
				l.logger.Warn("ignoring malformed lineage mutations",
					zap.String("source", name),
					zap.String("variant", e.Name),
					zap.Error(err))
				e.Rules = variant.Rules{}
			}
		}
		if err := table.Add(e); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", name, i+2, err)
		}
	}

	l.logger.Debug("loaded variant table",
		zap.String("source", name),
		zap.Int("variants", table.Len()))
	return table, nil
}

// peekHeader returns the header row and whether any data row follows it.
func peekHeader(data []byte) ([]string, bool, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, errors.New("empty file")
	}
	if err != nil {
		return nil, false, err
	}
	_, err = r.Read()
	if errors.Is(err, io.EOF) {
		return header, false, nil
	}
	return header, true, nil
}

func cellValue(s string) string {
	s = strings.TrimSpace(s)
	for _, m := range missingValues {
		if s == m {
			return ""
		}
	}
	return s
}

func splitSublineages(s string) []string {
	s = cellValue(s)
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, sublineageSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseRules decodes a JSON object of lineage -> "+"-delimited mutations,
// keeping key order.
func parseRules(s string, rules *variant.Rules) error {
	s = cellValue(s)
	if s == "" {
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(s))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key %v", tok)
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("rule %q: %w", key, err)
		}
		rules.Add(strings.TrimSpace(key), variant.ParseRuleMutations(val))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
