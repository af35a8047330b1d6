package pkgcache

import (
	"errors"
	"os"
)

func manifestStat(dir string) (os.FileInfo, error) {
	return os.Stat(dir)
}

// isNotExist unwraps err (pkg/errors.Wrap supports Unwrap as of v0.9) to
// check for a missing-file condition, so the check holds whether or not a
// caller has wrapped the underlying os.Open error.
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
