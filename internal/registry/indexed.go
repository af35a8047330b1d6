package registry

import (
	"context"
	"sort"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/semver"
)

type versionEntry struct {
	version semver.Version
	status  Status
}

type packageEntry struct {
	versions []versionEntry
	deps     map[string]map[identity.Identity]semver.Range // version string -> deps
}

// Indexed is the in-memory indexed registry: every package, version and
// status, and every dependency set, already resident in memory, so
// dependency lookups are pure and never block. It doubles as the
// test/mock registry used to drive the solver and build-planner test
// suites.
type Indexed struct {
	packages map[identity.Identity]*packageEntry
}

// NewIndexed returns an empty v2 registry ready for Put calls.
func NewIndexed() *Indexed {
	return &Indexed{packages: make(map[identity.Identity]*packageEntry)}
}

// Put registers a package version with the given status and production
// dependency constraints, overwriting any previous entry for the same
// (id, version) pair.
func (r *Indexed) Put(id identity.Identity, v semver.Version, status Status, deps map[identity.Identity]semver.Range) {
	pe, ok := r.packages[id]
	if !ok {
		pe = &packageEntry{deps: make(map[string]map[identity.Identity]semver.Range)}
		r.packages[id] = pe
	}
	for i, ve := range pe.versions {
		if ve.version.Equal(v) {
			pe.versions[i].status = status
			pe.deps[v.String()] = deps
			return
		}
	}
	pe.versions = append(pe.versions, versionEntry{version: v, status: status})
	pe.deps[v.String()] = deps
}

func (r *Indexed) FindVersions(_ context.Context, id identity.Identity) ([]semver.Version, error) {
	pe, ok := r.packages[id]
	if !ok {
		return nil, &NotFoundError{Package: id}
	}
	valid := make([]semver.Version, 0, len(pe.versions))
	for _, ve := range pe.versions {
		if ve.status == Valid {
			valid = append(valid, ve.version)
		}
	}
	sort.Sort(semver.Versions(valid))
	return valid, nil
}

func (r *Indexed) Dependencies(_ context.Context, id identity.Identity, v semver.Version) (map[identity.Identity]semver.Range, error) {
	pe, ok := r.packages[id]
	if !ok {
		return nil, &NotFoundError{Package: id}
	}
	deps, ok := pe.deps[v.String()]
	if !ok {
		return nil, &NotFoundError{Package: id, Version: &v}
	}
	return deps, nil
}

// AllIdentities returns every package identity registered, sorted, for
// nearest-name suggestion when reporting an unknown package.
func (r *Indexed) AllIdentities() identity.Identities {
	out := make(identity.Identities, 0, len(r.packages))
	for id := range r.packages {
		out = append(out, id)
	}
	sort.Sort(out)
	return out
}
