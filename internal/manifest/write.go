package manifest

import (
	"os"

	"github.com/elm-tooling/epm/internal/fsutil"
)

// WriteFile renders m canonically and writes it atomically to path. Two
// calls with the same logical content, regardless of map insertion order,
// produce byte-identical output, since Write always sorts by (author,
// name) before serializing.
func WriteFile(m *Manifest, path string) error {
	data, err := Write(m)
	if err != nil {
		return err
	}
	return fsutil.AtomicWrite(path, data, 0o644)
}

// ReadFile reads and parses the manifest at path.
func ReadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
