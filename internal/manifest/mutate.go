package manifest

import (
	"sort"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/pkgcache"
	"github.com/elm-tooling/epm/internal/semver"
)

// Find reports which map (if any) currently holds id.
func (m *Manifest) Find(id identity.Identity) Location {
	switch m.Kind {
	case Application:
		if _, ok := m.Direct[id]; ok {
			return Direct
		}
		if _, ok := m.Indirect[id]; ok {
			return Indirect
		}
		if _, ok := m.TestDirect[id]; ok {
			return TestDirect
		}
		if _, ok := m.TestIndirect[id]; ok {
			return TestIndirect
		}
	case Package:
		if _, ok := m.Deps[id]; ok {
			return PkgDep
		}
		if _, ok := m.TestDeps[id]; ok {
			return PkgTestDep
		}
	}
	return None
}

// Promote moves id one rung toward direct production status:
// indirect -> direct, test-indirect -> test-direct, test-direct -> direct
// (applications), test-dep -> dep (packages). It reports whether a
// promotion actually occurred; Direct/PkgDep/None are no-ops.
func (m *Manifest) Promote(id identity.Identity) bool {
	switch m.Kind {
	case Application:
		switch m.Find(id) {
		case Indirect:
			v := m.Indirect[id]
			delete(m.Indirect, id)
			m.Direct[id] = v
			return true
		case TestIndirect:
			v := m.TestIndirect[id]
			delete(m.TestIndirect, id)
			m.TestDirect[id] = v
			return true
		case TestDirect:
			v := m.TestDirect[id]
			delete(m.TestDirect, id)
			m.Direct[id] = v
			return true
		}
	case Package:
		if m.Find(id) == PkgTestDep {
			dc := m.TestDeps[id]
			delete(m.TestDeps, id)
			m.Deps[id] = dc
			return true
		}
	}
	return false
}

// AddOrUpdateOptions controls AddOrUpdate's target map selection.
type AddOrUpdateOptions struct {
	IsTest       bool
	IsDirect     bool
	RemoveFirst  bool
}

// AddOrUpdate inserts or updates a dependency entry. For applications, if
// RemoveFirst is set the package is first deleted from all four maps, then
// inserted into the unambiguous target selected by IsTest/IsDirect. For
// packages, it always inserts into Deps or TestDeps, writing the version
// as the next-major constraint form ("X.Y.Z <= v < (X+1).0.0"); pinned
// exact versions are reserved for application writes.
func (m *Manifest) AddOrUpdate(id identity.Identity, v semver.Version, opts AddOrUpdateOptions) {
	switch m.Kind {
	case Application:
		if opts.RemoveFirst {
			delete(m.Direct, id)
			delete(m.Indirect, id)
			delete(m.TestDirect, id)
			delete(m.TestIndirect, id)
		}
		switch {
		case opts.IsTest && opts.IsDirect:
			m.TestDirect[id] = v
		case opts.IsTest && !opts.IsDirect:
			m.TestIndirect[id] = v
		case !opts.IsTest && opts.IsDirect:
			m.Direct[id] = v
		default:
			m.Indirect[id] = v
		}
	case Package:
		dc := DepConstraint{Range: semver.UntilNextMajor(v)}
		dc.Raw = dc.Range.Format()
		if opts.IsTest {
			m.TestDeps[id] = dc
		} else {
			m.Deps[id] = dc
		}
	}
}

// ApplyChangePreservingLocation writes a new pinned version for id. If id
// currently exists in exactly one map, it stays there. If it appears in
// more than one map (a malformed manifest), every occurrence is updated
// consistently. If absent, it is added to the default production-direct
// location. Packages are not affected (packages store ranges, not pins);
// use AddOrUpdate for package dependency upgrades.
func (m *Manifest) ApplyChangePreservingLocation(id identity.Identity, v semver.Version) {
	if m.Kind != Application {
		return
	}
	maps := []map[identity.Identity]semver.Version{m.Direct, m.Indirect, m.TestDirect, m.TestIndirect}
	var found int
	for _, mp := range maps {
		if _, ok := mp[id]; ok {
			mp[id] = v
			found++
		}
	}
	if found == 0 {
		m.Direct[id] = v
	}
}

// Remove deletes id from every map it may occupy. For applications this
// touches all four maps; for packages, Deps and TestDeps. Orphaned
// indirects are NOT pruned here - see FindOrphanedPackages.
func (m *Manifest) Remove(id identity.Identity) {
	switch m.Kind {
	case Application:
		delete(m.Direct, id)
		delete(m.Indirect, id)
		delete(m.TestDirect, id)
		delete(m.TestIndirect, id)
	case Package:
		delete(m.Deps, id)
		delete(m.TestDeps, id)
	}
}

// FindOrphanedPackages computes the set of an application's indirect
// dependencies that are no longer required by any remaining direct
// dependency, by walking the declared-dependency closure of the direct set
// through the package cache. For a package manifest it returns nil.
func (m *Manifest) FindOrphanedPackages(reader pkgcache.Reader) ([]identity.Identity, error) {
	if m.Kind != Application {
		return nil, nil
	}

	reachable := make(map[identity.Identity]bool)
	var queue []identity.Identity
	for id := range m.Direct {
		queue = append(queue, id)
		reachable[id] = true
	}
	for id := range m.TestDirect {
		queue = append(queue, id)
		reachable[id] = true
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		v, ok := m.ResolvedVersion(id)
		if !ok {
			continue
		}
		deps, err := reader.Dependencies(id, v)
		if err != nil {
			continue
		}
		for _, d := range deps {
			if !reachable[d] {
				reachable[d] = true
				queue = append(queue, d)
			}
		}
	}

	var orphans []identity.Identity
	for id := range m.Indirect {
		if !reachable[id] {
			orphans = append(orphans, id)
		}
	}
	for id := range m.TestIndirect {
		if !reachable[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Sort(identity.Identities(orphans))
	return orphans, nil
}
