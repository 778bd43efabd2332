package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourceplane/foldbatch/internal/model"
)

// Extension sets accepted by the different entry points
var (
	LigandExtensions    = []string{".sdf", ".smi", ".mol", ".mol2"}
	JobExtensions       = []string{".json"}
	StructureExtensions = []string{".pdb", ".cif"}
	MSAInputExtensions  = []string{".json", ".fasta", ".fa"}
)

// ResolveInputs turns a file or directory path into candidate input files.
// Directories are walked recursively and filtered by extension; a single
// file is returned as-is and callers check its extension themselves.
func ResolveInputs(path string, exts []string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", model.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to access input %s: %w", path, err)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: %s is not a regular file", model.ErrUnsupportedFormat, path)
		}
		return []string{path}, nil
	}

	files := make([]string, 0)
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if HasExtension(p, exts) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", path, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files found in %s", model.ErrNoValidInput, strings.Join(exts, "/"), path)
	}

	sort.Strings(files)
	return files, nil
}

// HasExtension reports whether path ends with one of exts (case-insensitive)
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// RequireExtension fails with ErrUnsupportedFormat when path has none of exts
func RequireExtension(path string, exts []string) error {
	if HasExtension(path, exts) {
		return nil
	}
	return fmt.Errorf("%w: %s (expected %s)", model.ErrUnsupportedFormat, path, strings.Join(exts, ", "))
}

// FilterExtension keeps the paths that have one of exts
func FilterExtension(paths []string, exts []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if HasExtension(p, exts) {
			out = append(out, p)
		}
	}
	return out
}

// Stem returns the file name up to its first dot
func Stem(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}
