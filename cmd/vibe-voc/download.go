package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/inodb/vibe-voc/internal/reftable"
)

// defaultDownloads are the published ECDC tables fetched by the download command.
var defaultDownloads = []string{
	reftable.ECDCStaticURL,
	reftable.ECDCMappingsURL,
}

func newDownloadCmd() *cobra.Command {
	var (
		outputDir  string
		force      bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "download [url]...",
		Short: "Download reference variant tables",
		Long: `Download reference variant tables for offline use.

Without arguments the ECDC variant info table and public mappings are
fetched. Once downloaded, vibe-voc uses the local copy whenever the
configured table is the same URL.`,
		Example: `  vibe-voc download
  vibe-voc download --output /data/variants
  vibe-voc download --force https://example.org/monitoring.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if len(urls) == 0 {
				urls = defaultDownloads
			}
			if outputDir == "" {
				outputDir = DefaultTablesDir()
				if outputDir == "" {
					return fmt.Errorf("cannot determine home directory")
				}
			}
			return runDownload(cmd.Context(), cmd.OutOrStdout(), urls, outputDir, force, !noProgress)
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (default: ~/.vibe-voc/tables)")
	cmd.Flags().BoolVar(&force, "force", false, "Download even if the file already exists")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bars")

	return cmd
}

func runDownload(ctx context.Context, out io.Writer, urls []string, destDir string, force, showProgress bool) error {
	for _, u := range urls {
		if !reftable.IsURL(u) {
			return usageErrorf("not an http(s) URL: %s", u)
		}
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", destDir, err)
	}

	fmt.Fprintf(out, "Destination: %s\n", destDir)

	loader := newTableLoader()
	for _, u := range urls {
		dest := filepath.Join(destDir, path.Base(u))
		if err := downloadTable(ctx, out, loader, u, dest, force, showProgress); err != nil {
			return fmt.Errorf("downloading %s: %w", u, err)
		}
	}

	fmt.Fprintf(out, "Download complete.\n")
	return nil
}

// downloadTable fetches one table, skipping files that already exist.
func downloadTable(ctx context.Context, out io.Writer, loader *reftable.Loader, url, dest string, force, showProgress bool) error {
	if info, err := os.Stat(dest); err == nil && !force {
		fmt.Fprintf(out, "  %s already exists (%s), skipping\n", filepath.Base(dest), formatSize(info.Size()))
		return nil
	}

	var progress *mpb.Progress
	var bar *mpb.Bar
	var wrap reftable.ReaderWrapper
	if showProgress {
		progress = mpb.NewWithContext(ctx, mpb.WithOutput(out))
		wrap = func(r io.Reader, size int64) io.Reader {
			if size < 0 {
				size = 0
			}
			bar = progress.AddBar(size,
				mpb.PrependDecorators(decor.Name(filepath.Base(dest)+" ")),
				mpb.AppendDecorators(decor.CountersKibiByte("% .1f / % .1f")),
			)
			return bar.ProxyReader(r)
		}
	} else {
		fmt.Fprintf(out, "  Downloading %s...\n", filepath.Base(dest))
	}

	n, err := loader.Fetch(ctx, url, dest, wrap)
	if progress != nil {
		if bar != nil {
			if err != nil {
				bar.Abort(false)
			} else {
				bar.SetTotal(-1, true)
			}
		}
		progress.Wait()
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "  Done: %s (%s)\n", filepath.Base(dest), formatSize(n))
	return nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
