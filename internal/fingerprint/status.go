package fingerprint

import (
	"os"
)

// Status is a package's build-artifact freshness.
type Status int

const (
	Present Status = iota
	Stale
	Missing
)

func (s Status) String() string {
	switch s {
	case Present:
		return "present"
	case Stale:
		return "stale"
	default:
		return "missing"
	}
}

// CheckFile reads the fingerprint file at path and compares it against
// expected. A missing file yields Missing. A file that fails to parse
// yields Stale. Otherwise, Present if expected matches any stored
// fingerprint, else Stale.
func CheckFile(path string, expected Map) (Status, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Missing, nil
		}
		return Missing, err
	}
	defer f.Close()

	set, err := Decode(f)
	if err != nil {
		return Stale, nil
	}
	if set.ContainsEquivalent(expected) {
		return Present, nil
	}
	return Stale, nil
}
