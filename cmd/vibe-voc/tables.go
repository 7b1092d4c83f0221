package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-voc/internal/reftable"
	"github.com/inodb/vibe-voc/internal/variant"
)

// tableSet holds the loaded reference tables and where they came from.
type tableSet struct {
	Primary          *variant.Table
	Monitoring       *variant.Table // nil when not configured
	PrimarySource    string
	MonitoringSource string
}

// DefaultTablesDir returns the directory used by the download command.
func DefaultTablesDir() string {
	dir := DefaultDataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "tables")
}

// FindDownloadedTable looks for a previously downloaded copy of url.
func FindDownloadedTable(url string) (string, bool) {
	dir := DefaultTablesDir()
	if dir == "" {
		return "", false
	}
	p := filepath.Join(dir, path.Base(url))
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return "", false
}

// resolveTable prefers a downloaded copy over fetching a URL again.
func resolveTable(source string) string {
	if !reftable.IsURL(source) {
		return source
	}
	if p, ok := FindDownloadedTable(source); ok {
		logger.Debug("using downloaded table", zap.String("url", source), zap.String("path", p))
		return p
	}
	return source
}

func newTableLoader() *reftable.Loader {
	l := reftable.NewLoader()
	l.SetLogger(logger)
	return l
}

// loadTables loads tables.primary and, when set, tables.monitoring.
func loadTables(ctx context.Context, loader *reftable.Loader) (*tableSet, error) {
	ts := &tableSet{
		PrimarySource: resolveTable(viper.GetString("tables.primary")),
	}
	if ts.PrimarySource == "" {
		return nil, usageErrorf("no primary variant table configured (set --primary or tables.primary)")
	}

	var err error
	ts.Primary, err = loader.Load(ctx, ts.PrimarySource)
	if err != nil {
		return nil, fmt.Errorf("loading primary table: %w", err)
	}
	logger.Info("loaded primary variant table",
		zap.String("source", ts.PrimarySource),
		zap.Int("variants", ts.Primary.Len()))

	if src := viper.GetString("tables.monitoring"); src != "" {
		ts.MonitoringSource = resolveTable(src)
		ts.Monitoring, err = loader.Load(ctx, ts.MonitoringSource)
		if err != nil {
			return nil, fmt.Errorf("loading monitoring table: %w", err)
		}
		logger.Info("loaded monitoring variant table",
			zap.String("source", ts.MonitoringSource),
			zap.Int("variants", ts.Monitoring.Len()))
	}

	return ts, nil
}
