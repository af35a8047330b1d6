// Package pkgcache defines the narrow collaborator contract epm uses to
// read a package's own declared dependencies out of the on-disk cache
// (ELM_HOME/packages/<author>/<name>/<version>/elm.json). Disk (disk.go)
// implements that read contract over the cache's on-disk layout and Memory
// is a map-backed double; download and archive extraction are external
// collaborators and are not implemented here. The read contract is what
// the solver's DependencyProvider, the manifest mutator's orphan
// detector, and the build planner's fingerprint/package-order logic
// depend on. The solver and planner never touch the filesystem directly;
// they go through this interface.
package pkgcache

import (
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/semver"
)

// Reader reads package metadata out of the local package cache.
type Reader interface {
	// Dependencies returns the production dependencies a package declares
	// in its own elm.json at the given version - only those dependencies,
	// not their versions (the caller resolves versions via the current
	// project Manifest).
	Dependencies(id identity.Identity, v semver.Version) ([]identity.Identity, error)

	// ExposedModules returns the module names a package exposes at the
	// given version, used to build the module-to-package index for
	// foreign-module classification.
	ExposedModules(id identity.Identity, v semver.Version) ([]string, error)

	// SourcePath returns the on-disk path of the package's own source
	// root at the given version, or an error if it is not present in the
	// cache.
	SourcePath(id identity.Identity, v semver.Version) (string, error)
}

// Memory is an in-memory Reader, used by tests and by any caller that has
// already loaded the full package graph (e.g. from a registry snapshot).
type Memory struct {
	Deps     map[identity.Identity]map[semver.Version][]identity.Identity
	Exposed  map[identity.Identity]map[semver.Version][]string
	Sources  map[identity.Identity]map[semver.Version]string
}

func NewMemory() *Memory {
	return &Memory{
		Deps:    make(map[identity.Identity]map[semver.Version][]identity.Identity),
		Exposed: make(map[identity.Identity]map[semver.Version][]string),
		Sources: make(map[identity.Identity]map[semver.Version]string),
	}
}

func (m *Memory) Put(id identity.Identity, v semver.Version, deps []identity.Identity, exposed []string, srcPath string) {
	if m.Deps[id] == nil {
		m.Deps[id] = make(map[semver.Version][]identity.Identity)
	}
	if m.Exposed[id] == nil {
		m.Exposed[id] = make(map[semver.Version][]string)
	}
	if m.Sources[id] == nil {
		m.Sources[id] = make(map[semver.Version]string)
	}
	m.Deps[id][v] = deps
	m.Exposed[id][v] = exposed
	m.Sources[id][v] = srcPath
}

func (m *Memory) Dependencies(id identity.Identity, v semver.Version) ([]identity.Identity, error) {
	if byVer, ok := m.Deps[id]; ok {
		if deps, ok := byVer[v]; ok {
			return deps, nil
		}
	}
	return nil, &NotCachedError{ID: id, Version: v}
}

func (m *Memory) ExposedModules(id identity.Identity, v semver.Version) ([]string, error) {
	if byVer, ok := m.Exposed[id]; ok {
		if mods, ok := byVer[v]; ok {
			return mods, nil
		}
	}
	return nil, &NotCachedError{ID: id, Version: v}
}

func (m *Memory) SourcePath(id identity.Identity, v semver.Version) (string, error) {
	if byVer, ok := m.Sources[id]; ok {
		if p, ok := byVer[v]; ok {
			return p, nil
		}
	}
	return "", &NotCachedError{ID: id, Version: v}
}

// NotCachedError indicates a package/version is missing from the local
// cache entirely (distinct from a parse failure on an existing file).
type NotCachedError struct {
	ID      identity.Identity
	Version semver.Version
}

func (e *NotCachedError) Error() string {
	return e.ID.String() + "@" + e.Version.String() + " is not present in the package cache"
}
