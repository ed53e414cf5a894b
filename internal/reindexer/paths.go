package reindexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pjreed/rosbag2/internal/storage"
)

// resolutionBase returns the folder relative segment paths are joined to.
// Layouts before version 4 prefix each path with the bag folder name, so
// they resolve against its parent.
func resolutionBase(baseFolder string, version int) string {
	if version < storage.CurrentLayoutVersion {
		return filepath.Dir(filepath.Clean(baseFolder))
	}
	return baseFolder
}

// ResolveRelativePaths joins each relative path to the bag folder (or its
// parent for layouts before version 4). Absolute paths pass through.
func ResolveRelativePaths(baseFolder string, relative []string, version int) ([]string, error) {
	base := resolutionBase(baseFolder, version)
	info, err := os.Stat(base)
	if err != nil {
		return nil, fmt.Errorf("%w: base folder %s: %v", ErrNotFound, baseFolder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: base folder %s is not a directory", ErrNotFound, baseFolder)
	}
	out := make([]string, len(relative))
	for i, p := range relative {
		if filepath.IsAbs(p) {
			out[i] = p
			continue
		}
		out[i] = filepath.Join(base, p)
	}
	return out, nil
}

// RelativizePaths undoes ResolveRelativePaths: paths under the resolution
// base are made relative to it and anything else is returned unchanged.
func RelativizePaths(baseFolder string, paths []string, version int) []string {
	base := resolutionBase(baseFolder, version)
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p
		if !filepath.IsAbs(p) {
			continue
		}
		rel, err := filepath.Rel(base, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		out[i] = rel
	}
	return out
}

// StripParentPath returns the final element of path, the form segment
// references take in a version 4 index.
func StripParentPath(path string) string {
	return filepath.Base(filepath.Clean(path))
}
