// Package buildplan composes internal/manifest, internal/pkgcache,
// internal/fingerprint, and internal/modgraph into a serialized build plan:
// package topological order, local-module parallel batches, and
// per-package artifact freshness.
package buildplan

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/pkgcache"
	"github.com/elm-tooling/epm/internal/semver"
)

// PackageOrder runs a Kahn topological sort over the package build order:
// for each of ids (the project's resolved package set), read its own
// declared dependencies from cache, keep only the edges that land inside
// ids, then repeatedly pick the alphabetically-first node with no
// remaining unsatisfied dependency. Cycles are fatal.
//
// It returns the ordered identities and, for each, the filtered dependency
// list used to build that order (so callers don't need a second cache
// round-trip to build BuildPackage.Deps).
func PackageOrder(ids []identity.Identity, versions map[identity.Identity]semver.Version, cache pkgcache.Reader) ([]identity.Identity, map[identity.Identity][]identity.Identity, error) {
	projectSet := make(map[identity.Identity]bool, len(ids))
	for _, id := range ids {
		projectSet[id] = true
	}

	filteredDeps := make(map[identity.Identity][]identity.Identity, len(ids))
	indegree := make(map[identity.Identity]int, len(ids))
	dependents := make(map[identity.Identity][]identity.Identity, len(ids))

	for _, id := range ids {
		v, ok := versions[id]
		if !ok {
			return nil, nil, errors.Errorf("no resolved version for %s", id)
		}
		deps, err := cache.Dependencies(id, v)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading dependencies of %s", id)
		}
		var kept identity.Identities
		for _, d := range deps {
			if projectSet[d] {
				kept = append(kept, d)
			}
		}
		sort.Sort(kept)
		filteredDeps[id] = kept
		indegree[id] = len(kept)
		for _, d := range kept {
			dependents[d] = append(dependents[d], id)
		}
	}

	sorted := append(identity.Identities(nil), ids...)
	sort.Sort(sorted)

	var ready identity.Identities
	for _, id := range sorted {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Sort(ready)

	var order identity.Identities
	for len(ready) > 0 {
		sort.Sort(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(ids) {
		var stuck identity.Identities
		for _, id := range sorted {
			if indegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Sort(stuck)
		return nil, nil, errors.Errorf("package dependency cycle detected among: %v", stuck)
	}

	return order, filteredDeps, nil
}
