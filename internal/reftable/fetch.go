package reftable

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// ReaderWrapper decorates a download body, e.g. with a progress bar.
// size is -1 when the server did not report a length.
type ReaderWrapper func(r io.Reader, size int64) io.Reader

// Fetch downloads url to destPath. The file is written to a temporary
// path first and renamed into place once complete.
func (l *Loader) Fetch(ctx context.Context, url, destPath string, wrap ReaderWrapper) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	var body io.Reader = resp.Body
	if wrap != nil {
		body = wrap(body, resp.ContentLength)
	}

	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("rename file: %w", err)
	}

	l.logger.Debug("downloaded variant table",
		zap.String("url", url),
		zap.String("path", destPath),
		zap.Int64("bytes", n))
	return n, nil
}
