// Package solver resolves a set of root version constraints against a
// registry.Provider into a single version per package, using a
// conflict-tracking backtracking search over newest-first version queues.
// Each package's running constraint is built by intersecting every edge
// pointing at it; versions are tried from a newest-first queue and
// backtracked on failure.
package solver

import (
	"sort"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/semver"
)

// FailureKind categorizes why a solve failed.
type FailureKind int

const (
	NoSolution FailureKind = iota
	NoOfflineSolution
	NetworkError
	InvalidPackage
)

func (k FailureKind) String() string {
	switch k {
	case NoSolution:
		return "NO_SOLUTION"
	case NoOfflineSolution:
		return "NO_OFFLINE_SOLUTION"
	case NetworkError:
		return "NETWORK_ERROR"
	default:
		return "INVALID_PACKAGE"
	}
}

// Failure is returned when Solve cannot produce a selection.
type Failure struct {
	Kind      FailureKind
	Package   identity.Identity
	Message   string
	BlockedBy []identity.Identity // packages whose existing constraints caused the failure
}

func (f *Failure) Error() string {
	return f.Kind.String() + ": " + f.Message
}

// ChangeKind classifies a single package's movement between an old and new
// plan, for PackageChange.
type ChangeKind int

const (
	Add ChangeKind = iota
	Remove
	Upgrade
	Downgrade
	Promote
	Unchanged
)

func (k ChangeKind) String() string {
	switch k {
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Upgrade:
		return "upgrade"
	case Downgrade:
		return "downgrade"
	case Promote:
		return "promote"
	default:
		return "unchanged"
	}
}

// PackageChange describes one package's delta between the manifest before
// and after a solve.
type PackageChange struct {
	Package    identity.Identity
	Kind       ChangeKind
	OldVersion *semver.Version
	NewVersion *semver.Version
}

// PackageChanges is sortable by (author, name), the canonical ordering
// for all solver output.
type PackageChanges []PackageChange

func (c PackageChanges) Len() int      { return len(c) }
func (c PackageChanges) Swap(i, j int) { c[i], c[j] = c[j], c[i] }
func (c PackageChanges) Less(i, j int) bool {
	return c[i].Package.Less(c[j].Package)
}

// SortChanges is a small convenience wrapper so callers don't need to know
// solver exposes sort.Interface directly.
func SortChanges(changes []PackageChange) {
	sort.Sort(PackageChanges(changes))
}

// DiffSelections computes the PackageChange list between a before and
// after selection map, omitting unchanged packages.
func DiffSelections(before, after map[identity.Identity]semver.Version) []PackageChange {
	var changes []PackageChange
	for id, newV := range after {
		oldVPtr := (*semver.Version)(nil)
		if oldV, ok := before[id]; ok {
			if oldV.Equal(newV) {
				continue
			}
			v := oldV
			oldVPtr = &v
		}
		nv := newV
		kind := Add
		if oldVPtr != nil {
			if nv.GreaterThan(*oldVPtr) {
				kind = Upgrade
			} else {
				kind = Downgrade
			}
		}
		changes = append(changes, PackageChange{Package: id, Kind: kind, OldVersion: oldVPtr, NewVersion: &nv})
	}
	for id, oldV := range before {
		if _, ok := after[id]; !ok {
			v := oldV
			changes = append(changes, PackageChange{Package: id, Kind: Remove, OldVersion: &v})
		}
	}
	SortChanges(changes)
	return changes
}
