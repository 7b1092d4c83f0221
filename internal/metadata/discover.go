package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// metadataSuffixes are file name endings recognized as metadata exports.
var metadataSuffixes = []string{".tsv", ".tsv.gz", ".txt", ".txt.gz"}

// IsMetadataFile reports whether a file name looks like a metadata export.
func IsMetadataFile(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range metadataSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// FindMetadataFiles returns the metadata files directly inside dir, sorted by name.
// Hidden files and subdirectories are ignored.
func FindMetadataFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read metadata directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if IsMetadataFile(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
