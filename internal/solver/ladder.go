package solver

import (
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/semver"
)

// ProjectState is the subset of a manifest the ladder needs: the four
// version maps of an Application manifest. A Package manifest
// caller supplies the best-effort pinned versions it currently carries (its
// dependency ranges' lower bounds) via the same shape - see DESIGN.md for
// why that mapping is the driver's job, not the solver's.
type ProjectState struct {
	Direct       map[identity.Identity]semver.Version
	Indirect     map[identity.Identity]semver.Version
	TestDirect   map[identity.Identity]semver.Version
	TestIndirect map[identity.Identity]semver.Version
}

func exactRootsOf(m map[identity.Identity]semver.Version, out map[identity.Identity]semver.Range) {
	for id, v := range m {
		out[id] = semver.Exact(v)
	}
}

func upgradableRootsOf(m map[identity.Identity]semver.Version, out map[identity.Identity]semver.Range) {
	for id, v := range m {
		out[id] = semver.UntilNextMajor(v)
	}
}

// ExactAll is strategy rung 1: every package in every map becomes a root
// pinned to its current version. Minimal churn.
func ExactAll(state ProjectState) map[identity.Identity]semver.Range {
	out := make(map[identity.Identity]semver.Range)
	exactRootsOf(state.Direct, out)
	exactRootsOf(state.Indirect, out)
	exactRootsOf(state.TestDirect, out)
	exactRootsOf(state.TestIndirect, out)
	return out
}

// ExactDirectUpgradableIndirect is strategy rung 2: direct (and test-direct)
// maps stay pinned; indirect (and test-indirect) maps may move up to the
// next major version.
func ExactDirectUpgradableIndirect(state ProjectState) map[identity.Identity]semver.Range {
	out := make(map[identity.Identity]semver.Range)
	exactRootsOf(state.Direct, out)
	exactRootsOf(state.TestDirect, out)
	upgradableRootsOf(state.Indirect, out)
	upgradableRootsOf(state.TestIndirect, out)
	return out
}

// UpgradableWithinMajor is strategy rung 3: every package, direct or
// indirect, may move up to the next major version. Used for
// `upgrade --minor`.
func UpgradableWithinMajor(state ProjectState) map[identity.Identity]semver.Range {
	out := make(map[identity.Identity]semver.Range)
	upgradableRootsOf(state.Direct, out)
	upgradableRootsOf(state.Indirect, out)
	upgradableRootsOf(state.TestDirect, out)
	upgradableRootsOf(state.TestIndirect, out)
	return out
}

// CrossMajorForTarget is strategy rung 4: target is added as a root with no
// bound at all, and is the first entry in the returned priority order, so it
// is chosen before any transitive constraint accrues against it. No other
// production package is added as a root (the solver picks whatever versions
// satisfy the transitive deps of target and the test roots); test packages
// stay pinned, since `--major` is never implied for
// test-only upgrades.
func CrossMajorForTarget(state ProjectState, target identity.Identity) (roots map[identity.Identity]semver.Range, priority []identity.Identity) {
	out := map[identity.Identity]semver.Range{target: semver.Any()}
	exactRootsOf(state.TestDirect, out)
	exactRootsOf(state.TestIndirect, out)
	return out, []identity.Identity{target}
}

// ExactAllTargetPinned is the ladder's third rung for `install P@V`: every
// existing package stays pinned exactly as ExactAll does, and target is
// added (or overridden) pinned to pinnedVersion.
func ExactAllTargetPinned(state ProjectState, target identity.Identity, pinnedVersion semver.Version) map[identity.Identity]semver.Range {
	out := ExactAll(state)
	out[target] = semver.Exact(pinnedVersion)
	return out
}
