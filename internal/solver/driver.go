package solver

import (
	"context"

	"github.com/elm-tooling/epm/internal/featureflag"
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/registry"
	"github.com/elm-tooling/epm/internal/semver"
)

// Driver wraps Solve with the strategy ladder: each operation tries a
// fixed, ordered list of root-building strategies, and the first rung
// that finds a solution wins.
type Driver struct {
	Provider registry.Provider
	Offline  bool
}

// rung pairs a root-constraint set with the priority order Solve should use
// when resolving it.
type rung struct {
	roots    map[identity.Identity]semver.Range
	priority []identity.Identity
}

func (d *Driver) tryLadder(ctx context.Context, rungs []rung) (map[identity.Identity]semver.Version, *Failure) {
	var lastFailure *Failure
	for _, r := range rungs {
		selected, failure := Solve(ctx, d.Provider, r.roots, d.Offline, r.priority...)
		if failure == nil {
			return selected, nil
		}
		if failure.Kind != NoSolution {
			return nil, failure
		}
		lastFailure = failure
	}
	return nil, lastFailure
}

// InstallUnpinned runs the ladder for `install P`: EXACT_ALL, then
// EXACT_DIRECT_UPGRADABLE_INDIRECT, then
// UPGRADABLE_WITHIN_MAJOR, each with target added as a root with no upper
// bound so a fresh package can be introduced at any rung.
func (d *Driver) InstallUnpinned(ctx context.Context, state ProjectState, target identity.Identity) (map[identity.Identity]semver.Version, *Failure) {
	withTarget := func(roots map[identity.Identity]semver.Range) map[identity.Identity]semver.Range {
		if _, ok := roots[target]; !ok {
			roots[target] = semver.Any()
		}
		return roots
	}
	rungs := []rung{
		{roots: withTarget(ExactAll(state)), priority: []identity.Identity{target}},
		{roots: withTarget(ExactDirectUpgradableIndirect(state)), priority: []identity.Identity{target}},
		{roots: withTarget(UpgradableWithinMajor(state)), priority: []identity.Identity{target}},
	}
	if !featureflag.Enabled(featureflag.ExactAllFirst) {
		rungs = rungs[1:]
	}
	return d.tryLadder(ctx, rungs)
}

// InstallPinned runs the ladder for `install P@V`: UPGRADABLE_WITHIN_MAJOR,
// then EXACT_DIRECT_UPGRADABLE_INDIRECT, then an exact-everything rung with
// target pinned to v - each with target constrained to exactly v.
func (d *Driver) InstallPinned(ctx context.Context, state ProjectState, target identity.Identity, v semver.Version) (map[identity.Identity]semver.Version, *Failure) {
	pin := func(roots map[identity.Identity]semver.Range) map[identity.Identity]semver.Range {
		roots[target] = semver.Exact(v)
		return roots
	}
	return d.tryLadder(ctx, []rung{
		{roots: pin(UpgradableWithinMajor(state)), priority: []identity.Identity{target}},
		{roots: pin(ExactDirectUpgradableIndirect(state)), priority: []identity.Identity{target}},
		{roots: ExactAllTargetPinned(state, target, v), priority: []identity.Identity{target}},
	})
}

// InstallMajor runs the ladder for `install --major P`: CROSS_MAJOR_FOR_TARGET
// only.
func (d *Driver) InstallMajor(ctx context.Context, state ProjectState, target identity.Identity) (map[identity.Identity]semver.Version, *Failure) {
	roots, priority := CrossMajorForTarget(state, target)
	return d.tryLadder(ctx, []rung{{roots: roots, priority: priority}})
}

// UpgradeMinor runs UPGRADABLE_WITHIN_MAJOR for `upgrade --minor` (single
// package or all, depending on how the caller shapes state).
func (d *Driver) UpgradeMinor(ctx context.Context, state ProjectState) (map[identity.Identity]semver.Version, *Failure) {
	return d.tryLadder(ctx, []rung{{roots: UpgradableWithinMajor(state)}})
}

// UpgradeMajor runs CROSS_MAJOR_FOR_TARGET for `upgrade --major P`.
func (d *Driver) UpgradeMajor(ctx context.Context, state ProjectState, target identity.Identity) (map[identity.Identity]semver.Version, *Failure) {
	roots, priority := CrossMajorForTarget(state, target)
	return d.tryLadder(ctx, []rung{{roots: roots, priority: priority}})
}

// PartitionKind classifies one requested package in a multi-package
// install.
type PartitionKind int

const (
	PartitionAlreadyDirect PartitionKind = iota
	PartitionPromote
	PartitionSolve
)

// Partition splits a multi-package install request into already-direct
// (nothing to do), promotion candidates (already indirect, just move
// maps), and solver candidates (need a version chosen). Only the
// PartitionSolve set is ever passed to the solver, and promotions are
// only applied after that solve (or immediately if the solve set is
// empty) succeeds, preserving all-or-nothing install semantics.
func Partition(targets []identity.Identity, direct, indirect map[identity.Identity]semver.Version) map[identity.Identity]PartitionKind {
	result := make(map[identity.Identity]PartitionKind, len(targets))
	for _, id := range targets {
		switch {
		case hasKey(direct, id):
			result[id] = PartitionAlreadyDirect
		case hasKey(indirect, id):
			result[id] = PartitionPromote
		default:
			result[id] = PartitionSolve
		}
	}
	return result
}

func hasKey(m map[identity.Identity]semver.Version, id identity.Identity) bool {
	_, ok := m[id]
	return ok
}
