package solver

import (
	"context"
	"sort"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/registry"
	"github.com/elm-tooling/epm/internal/semver"
)

// Solve resolves roots (a root package's declared version ranges) against
// provider into a single Version per reachable package. Versions are
// tried newest-first unless pinned; failure at one version backtracks to
// the next older candidate for the same package before giving up on it
// entirely.
//
// offline, when true, maps any registry.NetworkError into a
// NoOfflineSolution failure instead of NetworkError.
// priority, when non-empty, lists root packages that must be queued (and
// thus resolved) before the rest, in the given order - the
// CROSS_MAJOR_FOR_TARGET ladder rung relies on this to pick the target's
// version before transitive constraints from other roots accrue.
func Solve(ctx context.Context, provider registry.Provider, roots map[identity.Identity]semver.Range, offline bool, priority ...identity.Identity) (map[identity.Identity]semver.Version, *Failure) {
	s := &search{ctx: ctx, provider: provider, offline: offline}

	queue := rootQueue(roots, priority)
	constraints := make(map[identity.Identity]semver.Range, len(roots))
	for id, r := range roots {
		constraints[id] = r
	}

	selected, failure := s.assign(queue, constraints, map[identity.Identity]semver.Version{})
	if failure != nil {
		return nil, failure
	}
	return selected, nil
}

func rootQueue(roots map[identity.Identity]semver.Range, priority []identity.Identity) []identity.Identity {
	queued := make(map[identity.Identity]bool, len(roots))
	queue := make([]identity.Identity, 0, len(roots))
	for _, id := range priority {
		if _, ok := roots[id]; ok && !queued[id] {
			queued[id] = true
			queue = append(queue, id)
		}
	}

	rest := make(identity.Identities, 0, len(roots))
	for id := range roots {
		if !queued[id] {
			rest = append(rest, id)
		}
	}
	sort.Sort(rest)
	return append(queue, rest...)
}

type search struct {
	ctx      context.Context
	provider registry.Provider
	offline  bool
}

// assign resolves the next package in queue, trying each candidate version
// that satisfies the accumulated constraint, recursing into the rest of the
// queue (extended by that version's own dependencies) before committing.
// This is depth-first with chronological backtracking: a dead end at any
// depth unwinds to the next untried version at the frame that caused it.
func (s *search) assign(queue []identity.Identity, constraints map[identity.Identity]semver.Range, selected map[identity.Identity]semver.Version) (map[identity.Identity]semver.Version, *Failure) {
	if len(queue) == 0 {
		return selected, nil
	}
	id, rest := queue[0], queue[1:]

	if v, ok := selected[id]; ok {
		if !constraints[id].Contains(v) {
			return nil, &Failure{Kind: NoSolution, Package: id, Message: id.String() + " is already selected at a version incompatible with a later constraint"}
		}
		return s.assign(rest, constraints, selected)
	}

	versions, err := s.provider.FindVersions(s.ctx, id)
	if err != nil {
		return nil, s.translate(id, err)
	}

	rng := constraints[id]
	var lastFailure *Failure
	for _, v := range versions {
		if !rng.Contains(v) {
			continue
		}

		depRanges, err := s.provider.Dependencies(s.ctx, id, v)
		if err != nil {
			return nil, s.translate(id, err)
		}

		newSelected := cloneSelection(selected)
		newSelected[id] = v
		newConstraints := cloneConstraints(constraints)
		newQueue := append([]identity.Identity(nil), rest...)
		queued := make(map[identity.Identity]bool, len(newQueue))
		for _, q := range newQueue {
			queued[q] = true
		}

		conflict := false
		for _, depID := range sortedDepIDs(depRanges) {
			depRange := depRanges[depID]
			merged := depRange
			if existing, ok := newConstraints[depID]; ok {
				merged = existing.Intersect(depRange)
			}
			if merged.IsEmpty() {
				conflict = true
				break
			}
			newConstraints[depID] = merged
			if sv, ok := newSelected[depID]; ok && !merged.Contains(sv) {
				conflict = true
				break
			}
			if !queued[depID] {
				queued[depID] = true
				newQueue = append(newQueue, depID)
			}
		}
		if conflict {
			lastFailure = &Failure{Kind: NoSolution, Package: id, Message: id.String() + "@" + v.String() + " conflicts with an existing dependency constraint"}
			continue
		}

		result, failure := s.assign(newQueue, newConstraints, newSelected)
		if failure == nil {
			return result, nil
		}
		if failure.Kind != NoSolution {
			return nil, failure
		}
		lastFailure = failure
	}

	if lastFailure != nil {
		lastFailure.BlockedBy = append(lastFailure.BlockedBy, id)
	} else {
		lastFailure = &Failure{Kind: NoSolution, Package: id, Message: "no version of " + id.String() + " satisfies the required range"}
	}
	return nil, lastFailure
}

func (s *search) translate(id identity.Identity, err error) *Failure {
	switch err.(type) {
	case *registry.NotFoundError:
		return &Failure{Kind: InvalidPackage, Package: id, Message: err.Error()}
	case *registry.NetworkError:
		if s.offline {
			return &Failure{Kind: NoOfflineSolution, Package: id, Message: err.Error()}
		}
		return &Failure{Kind: NetworkError, Package: id, Message: err.Error()}
	default:
		return &Failure{Kind: InvalidPackage, Package: id, Message: err.Error()}
	}
}

func cloneSelection(m map[identity.Identity]semver.Version) map[identity.Identity]semver.Version {
	out := make(map[identity.Identity]semver.Version, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneConstraints(m map[identity.Identity]semver.Range) map[identity.Identity]semver.Range {
	out := make(map[identity.Identity]semver.Range, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedDepIDs(deps map[identity.Identity]semver.Range) []identity.Identity {
	ids := make(identity.Identities, 0, len(deps))
	for id := range deps {
		ids = append(ids, id)
	}
	sort.Sort(ids)
	return ids
}
