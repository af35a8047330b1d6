package fsutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// WalkSourceFiles walks root (one of a project's source directories) and
// invokes fn for every regular file whose name ends in ".elm", skipping
// dot-directories. It uses godirwalk rather than filepath.Walk for a
// single syscall per directory entry instead of a stat per entry.
func WalkSourceFiles(root string, fn func(path string) error) error {
	return godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				name := de.Name()
				if strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(osPathname, ".elm") {
				return nil
			}
			return fn(osPathname)
		},
		ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
			if os.IsPermission(err) {
				return godirwalk.SkipNode
			}
			return godirwalk.Halt
		},
		Unsorted: false,
	})
}

// ResolveModulePath converts a module name ("Foo.Bar") into a candidate
// file path by substituting '.' with '/' and appending ".elm", then
// searches srcDirs in order for an existing file. It returns the first
// match, or ("", false) if the module has no local source file - meaning
// it must be classified as foreign.
func ResolveModulePath(moduleName string, srcDirs []string) (path string, ok bool) {
	rel := strings.ReplaceAll(moduleName, ".", "/") + ".elm"
	for _, dir := range srcDirs {
		candidate := filepath.Join(dir, rel)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// ReadFile is a thin, error-wrapped convenience used by the module
// skeleton parser boundary so callers get a consistently-wrapped error.
func ReadFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return b, nil
}
