// Package semver implements the version and version-range algebra used
// throughout epm: a strict (major, minor, patch) triple with total order,
// plus the half-open range type the solver and manifest mutator operate on.
//
// Parsing is delegated to github.com/Masterminds/semver/v3, restricted to
// versions with no pre-release or build-metadata segment, since elm.json
// never carries either; comparison is done here on the triple itself.
package semver

import (
	"fmt"

	mmsemver "github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Version is an immutable (major, minor, patch) triple with a total,
// lexicographic order.
type Version struct {
	major, minor, patch uint16
}

// New constructs a Version directly from its components.
func New(major, minor, patch uint16) Version {
	return Version{major: major, minor: minor, patch: patch}
}

// Parse parses "X.Y.Z" into a Version. Any other shape - missing
// components, a 'v' prefix, pre-release or build metadata, non-decimal
// components, leading/trailing whitespace - is rejected.
func Parse(s string) (Version, error) {
	sv, err := mmsemver.NewVersion(s)
	if err != nil {
		return Version{}, errors.Wrapf(err, "invalid version %q", s)
	}
	if sv.Prerelease() != "" || sv.Metadata() != "" {
		return Version{}, errors.Errorf("invalid version %q: pre-release and build metadata are not allowed", s)
	}
	if sv.String() != s {
		return Version{}, errors.Errorf("invalid version %q: must be exactly X.Y.Z", s)
	}
	if sv.Major() < 0 || sv.Major() > 0xffff || sv.Minor() < 0 || sv.Minor() > 0xffff || sv.Patch() < 0 || sv.Patch() > 0xffff {
		return Version{}, errors.Errorf("invalid version %q: component out of range", s)
	}
	return Version{major: uint16(sv.Major()), minor: uint16(sv.Minor()), patch: uint16(sv.Patch())}, nil
}

// MustParse is Parse, panicking on error. Reserved for literal versions in
// tests and internal callers that already know the string is well formed.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) Major() uint16 { return v.major }
func (v Version) Minor() uint16 { return v.minor }
func (v Version) Patch() uint16 { return v.patch }

// String formats the version canonically as "X.Y.Z".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other, using the lexicographic (major, minor, patch) order.
func (v Version) Compare(other Version) int {
	switch {
	case v.major != other.major:
		if v.major < other.major {
			return -1
		}
		return 1
	case v.minor != other.minor:
		if v.minor < other.minor {
			return -1
		}
		return 1
	case v.patch != other.patch:
		if v.patch < other.patch {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func (v Version) Less(other Version) bool    { return v.Compare(other) < 0 }
func (v Version) Equal(other Version) bool    { return v.Compare(other) == 0 }
func (v Version) GreaterThan(o Version) bool  { return v.Compare(o) > 0 }
func (v Version) GreaterOrEqual(o Version) bool { return v.Compare(o) >= 0 }
func (v Version) LessOrEqual(o Version) bool  { return v.Compare(o) <= 0 }

// NextMajor returns the version one major bump above v, with minor and
// patch reset - the exclusive upper bound of an "until next major" range.
func (v Version) NextMajor() Version {
	return Version{major: v.major + 1}
}

// NextMinor returns the version one minor bump above v, with patch reset -
// the exclusive upper bound of an "until next minor" range.
func (v Version) NextMinor() Version {
	return Version{major: v.major, minor: v.minor + 1}
}

// Versions is a sortable slice of Version, newest first - matching the
// registry's documented ordering (§3 RegistryEntry).
type Versions []Version

func (vs Versions) Len() int           { return len(vs) }
func (vs Versions) Swap(i, j int)      { vs[i], vs[j] = vs[j], vs[i] }
func (vs Versions) Less(i, j int) bool { return vs[j].Less(vs[i]) } // newest first
