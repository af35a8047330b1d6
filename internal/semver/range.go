package semver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Bound is one edge of a VersionRange.
type Bound struct {
	version   Version
	inclusive bool
	unbounded bool
}

// UnboundedBound is the bound that imposes no restriction.
func UnboundedBound() Bound {
	return Bound{unbounded: true}
}

// Version returns the bound's edge version. Meaningless if Unbounded.
func (b Bound) Version() Version { return b.version }

// Inclusive reports whether the bound includes its edge version.
func (b Bound) Inclusive() bool { return b.inclusive }

// Unbounded reports whether the bound imposes no restriction at all.
func (b Bound) Unbounded() bool { return b.unbounded }

// InclusiveBound is a closed bound at v (">= v" as a lower bound, "<= v" as
// an upper bound).
func InclusiveBound(v Version) Bound {
	return Bound{version: v, inclusive: true}
}

// ExclusiveBound is an open bound at v ("> v" as a lower bound, "< v" as an
// upper bound).
func ExclusiveBound(v Version) Bound {
	return Bound{version: v, inclusive: false}
}

// Range is a half-open (or fully unbounded) interval of Versions. The zero
// Range is not valid; use Empty() or construct via
// Exact/UntilNextMajor/UntilNextMinor/Any/ParseConstraint.
type Range struct {
	lower   Bound
	upper   Bound
	isEmpty bool
}

// Empty returns the range that matches no version.
func Empty() Range {
	return Range{isEmpty: true}
}

// Any returns the unbounded range that matches every version.
func Any() Range {
	return Range{lower: UnboundedBound(), upper: UnboundedBound()}
}

// Exact returns the canonical single-version range [v, v].
func Exact(v Version) Range {
	return Range{lower: InclusiveBound(v), upper: InclusiveBound(v)}
}

// UntilNextMajor returns [v, v.NextMajor()).
func UntilNextMajor(v Version) Range {
	return Range{lower: InclusiveBound(v), upper: ExclusiveBound(v.NextMajor())}
}

// UntilNextMinor returns [v, v.NextMinor()).
func UntilNextMinor(v Version) Range {
	return Range{lower: InclusiveBound(v), upper: ExclusiveBound(v.NextMinor())}
}

// IsEmpty reports whether r matches no version.
func (r Range) IsEmpty() bool { return r.isEmpty }

// IsExact reports whether r is the canonical single-version range for some
// version, returning that version.
func (r Range) IsExact() (Version, bool) {
	if r.isEmpty || r.lower.unbounded || r.upper.unbounded {
		return Version{}, false
	}
	if r.lower.inclusive && r.upper.inclusive && r.lower.version.Equal(r.upper.version) {
		return r.lower.version, true
	}
	return Version{}, false
}

func (r Range) Lower() Bound { return r.lower }
func (r Range) Upper() Bound { return r.upper }

// Contains reports whether v satisfies r, per each bound's inclusivity.
// Empty ranges contain nothing.
func (r Range) Contains(v Version) bool {
	if r.isEmpty {
		return false
	}
	if !r.lower.unbounded {
		if r.lower.inclusive {
			if v.Less(r.lower.version) {
				return false
			}
		} else if v.LessOrEqual(r.lower.version) {
			return false
		}
	}
	if !r.upper.unbounded {
		if r.upper.inclusive {
			if v.GreaterThan(r.upper.version) {
				return false
			}
		} else if v.GreaterOrEqual(r.upper.version) {
			return false
		}
	}
	return true
}

// Intersect computes the intersection of r and o. The result is Empty if
// the combined lower bound exceeds the combined upper bound, or if an
// inclusive/exclusive tie makes the interval degenerate (e.g. [v,v) or
// (v,v]; [v,v] is not degenerate).
func (r Range) Intersect(o Range) Range {
	if r.isEmpty || o.isEmpty {
		return Empty()
	}

	lower := tighterLower(r.lower, o.lower)
	upper := tighterUpper(r.upper, o.upper)

	if lower.unbounded || upper.unbounded {
		return Range{lower: lower, upper: upper}
	}

	switch lower.version.Compare(upper.version) {
	case 1:
		return Empty()
	case 0:
		if lower.inclusive && upper.inclusive {
			return Range{lower: lower, upper: upper}
		}
		return Empty()
	default:
		return Range{lower: lower, upper: upper}
	}
}

func tighterLower(a, b Bound) Bound {
	if a.unbounded {
		return b
	}
	if b.unbounded {
		return a
	}
	switch a.version.Compare(b.version) {
	case 1:
		return a
	case -1:
		return b
	default:
		if !a.inclusive || !b.inclusive {
			return Bound{version: a.version, inclusive: false}
		}
		return a
	}
}

func tighterUpper(a, b Bound) Bound {
	if a.unbounded {
		return b
	}
	if b.unbounded {
		return a
	}
	switch a.version.Compare(b.version) {
	case -1:
		return a
	case 1:
		return b
	default:
		if !a.inclusive || !b.inclusive {
			return Bound{version: a.version, inclusive: false}
		}
		return a
	}
}

// constraintRegex matches the "X.Y.Z <= v < A.B.C" textual form accepted in
// manifests. Exactly one space surrounds each operator; no leading
// whitespace or trailing content is tolerated.
var constraintRegex = regexp.MustCompile(`^(\d+\.\d+\.\d+) <= v < (\d+\.\d+\.\d+)$`)

// ParseConstraint accepts the textual forms:
//
//	"X.Y.Z"                  -> exact range [v,v]
//	"X.Y.Z <= v < A.B.C"     -> explicit half-open range
//
// Caret form ("^X.Y.Z") is accepted only via ParseCaretConstraint, reserved
// for programmatic callers - never from a manifest file.
func ParseConstraint(s string) (Range, error) {
	if m := constraintRegex.FindStringSubmatch(s); m != nil {
		lo, err := Parse(m[1])
		if err != nil {
			return Range{}, err
		}
		hi, err := Parse(m[2])
		if err != nil {
			return Range{}, err
		}
		r := Range{lower: InclusiveBound(lo), upper: ExclusiveBound(hi)}
		if r.lower.version.GreaterThan(r.upper.version) {
			return Empty(), nil
		}
		return r, nil
	}

	if strings.TrimSpace(s) != s || strings.Contains(s, "  ") {
		return Range{}, errors.Errorf("invalid constraint %q: unexpected whitespace", s)
	}

	v, err := Parse(s)
	if err != nil {
		return Range{}, errors.Wrapf(err, "invalid constraint %q", s)
	}
	return Exact(v), nil
}

// ParseCaretConstraint accepts "^X.Y.Z", meaning UntilNextMajor(X.Y.Z), for
// programmatic callers. The manifest reader never calls it, so a caret
// constraint is never accepted when reading a manifest file from disk.
func ParseCaretConstraint(s string) (Range, error) {
	if !strings.HasPrefix(s, "^") {
		return Range{}, errors.Errorf("invalid caret constraint %q: must start with '^'", s)
	}
	v, err := Parse(strings.TrimPrefix(s, "^"))
	if err != nil {
		return Range{}, errors.Wrapf(err, "invalid caret constraint %q", s)
	}
	return UntilNextMajor(v), nil
}

// Format renders r canonically for writing into a package manifest:
// "X.Y.Z" if r is exact, else always "X.Y.Z <= v < A.B.C". Applications
// never call Format directly - they store the pinned exact version string
// instead (see internal/manifest).
func (r Range) Format() string {
	if r.isEmpty {
		return ""
	}
	if v, ok := r.IsExact(); ok {
		return v.String()
	}
	if r.lower.unbounded || r.upper.unbounded {
		return r.rawString()
	}
	return fmt.Sprintf("%s <= v < %s", r.lower.version, r.upper.version)
}

func (r Range) rawString() string {
	var b strings.Builder
	if r.lower.unbounded {
		b.WriteString("any")
	} else {
		op := ">="
		if !r.lower.inclusive {
			op = ">"
		}
		fmt.Fprintf(&b, "%s %s", op, r.lower.version)
	}
	if !r.upper.unbounded {
		op := "<="
		if !r.upper.inclusive {
			op = "<"
		}
		fmt.Fprintf(&b, ", %s %s", op, r.upper.version)
	}
	return b.String()
}

func (r Range) String() string {
	if r.isEmpty {
		return "<empty>"
	}
	return r.Format()
}
