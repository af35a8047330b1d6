// Package fsutil provides write-atomicity primitives (write-to-tempfile,
// fsync, rename; unlink the tempfile on any failure before rename), plus
// an advisory file lock around the sequence using
// github.com/theckman/go-flock so a second invocation never races a
// manifest write.
package fsutil

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
	flock "github.com/theckman/go-flock"
)

// AtomicWrite writes data to path by first writing to "<path>.tmp",
// fsync-ing it, then renaming it over path. If any step before the rename
// fails, the tempfile is removed and path is left untouched. A
// *flock.Flock guards the sequence against a second epm invocation
// touching the same file concurrently.
func AtomicWrite(path string, data []byte, perm os.FileMode) (err error) {
	lockPath := path + ".lock"
	fl := flock.NewFlock(lockPath)
	if err := fl.Lock(); err != nil {
		return errors.Wrapf(err, "locking %s", lockPath)
	}
	defer fl.Unlock()

	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return errors.Wrapf(err, "creating %s", tmp)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return errors.Wrapf(err, "fsyncing %s", tmp)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmp)
	}

	if err = renameWithFallback(tmp, path); err != nil {
		return errors.Wrapf(err, "renaming %s to %s", tmp, path)
	}
	return nil
}

// renameWithFallback attempts to rename src to dest, falling back to a
// copy-then-remove on a cross-device link error.
func renameWithFallback(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}

	linkErr, ok := err.(*os.LinkError)
	if !ok || linkErr.Err != syscall.EXDEV {
		return err
	}

	// Rename failed because src and dest are on different devices; fall
	// back to copy-then-remove.
	data, rerr := os.ReadFile(src)
	if rerr != nil {
		return err
	}
	fi, serr := os.Stat(src)
	if serr != nil {
		return err
	}
	if werr := os.WriteFile(dest, data, fi.Mode()); werr != nil {
		return werr
	}
	return os.Remove(src)
}
