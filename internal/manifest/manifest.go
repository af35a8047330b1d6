// Package manifest implements the elm.json data model and the manifest
// mutator: tagged raw/cooked JSON structs with sorted-map serialization,
// over an Application/Package tagged union.
package manifest

import (
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/semver"
)

// Kind discriminates the two manifest shapes.
type Kind int

const (
	Application Kind = iota
	Package
)

func (k Kind) String() string {
	if k == Application {
		return "application"
	}
	return "package"
}

// Location names the map (or absence thereof) a package occupies.
type Location int

const (
	None Location = iota
	Direct
	Indirect
	TestDirect
	TestIndirect
	PkgDep
	PkgTestDep
)

func (l Location) String() string {
	switch l {
	case Direct:
		return "direct"
	case Indirect:
		return "indirect"
	case TestDirect:
		return "test-direct"
	case TestIndirect:
		return "test-indirect"
	case PkgDep:
		return "dependencies"
	case PkgTestDep:
		return "test-dependencies"
	default:
		return "none"
	}
}

// DepConstraint is a package-manifest dependency entry: the parsed Range
// plus the original input text, kept for round-trip fidelity.
type DepConstraint struct {
	Range semver.Range
	Raw   string
}

// Manifest is the parsed elm.json, tagged by Kind. Only the fields for
// the active Kind are meaningful.
type Manifest struct {
	Kind       Kind
	ElmVersion string

	// Application fields.
	Direct       map[identity.Identity]semver.Version
	Indirect     map[identity.Identity]semver.Version
	TestDirect   map[identity.Identity]semver.Version
	TestIndirect map[identity.Identity]semver.Version

	// Package fields.
	Name           string
	Version        semver.Version
	License        string
	ExposedModules []string
	Deps           map[identity.Identity]DepConstraint
	TestDeps       map[identity.Identity]DepConstraint

	// extraTopLevel preserves any top-level key this system does not
	// model, plus "source-directories", so writes re-emit those keys
	// byte-for-byte as read.
	extraTopLevel map[string][]byte
	sourceDirs    []string
}

// NewApplication constructs an empty application manifest.
func NewApplication(elmVersion string) *Manifest {
	return &Manifest{
		Kind:         Application,
		ElmVersion:   elmVersion,
		Direct:       make(map[identity.Identity]semver.Version),
		Indirect:     make(map[identity.Identity]semver.Version),
		TestDirect:   make(map[identity.Identity]semver.Version),
		TestIndirect: make(map[identity.Identity]semver.Version),
	}
}

// NewPackage constructs an empty package manifest.
func NewPackage(name, elmVersion string) *Manifest {
	return &Manifest{
		Kind:       Package,
		ElmVersion: elmVersion,
		Name:       name,
		Deps:       make(map[identity.Identity]DepConstraint),
		TestDeps:   make(map[identity.Identity]DepConstraint),
	}
}

// SourceDirs returns the project's configured source directories, as read
// from the "source-directories" key of either manifest kind, defaulting to
// ["src"] when that key is absent or empty.
func (m *Manifest) SourceDirs() []string {
	if len(m.sourceDirs) == 0 {
		return []string{"src"}
	}
	return m.sourceDirs
}

// SetSourceDirs overrides the source directory list SourceDirs returns, for
// callers constructing manifests in tests (Read sets the list directly).
// It does not change what Write emits for "source-directories", which is
// the key as originally read.
func (m *Manifest) SetSourceDirs(dirs []string) {
	m.sourceDirs = dirs
}

// AllProductionIdentities returns every package identity referenced by any
// of the manifest's production (non-test) maps.
func (m *Manifest) AllProductionIdentities() []identity.Identity {
	var out []identity.Identity
	switch m.Kind {
	case Application:
		for id := range m.Direct {
			out = append(out, id)
		}
		for id := range m.Indirect {
			out = append(out, id)
		}
	case Package:
		for id := range m.Deps {
			out = append(out, id)
		}
	}
	return out
}

// AllTestIdentities returns every package identity referenced by any of the
// manifest's test-only maps.
func (m *Manifest) AllTestIdentities() []identity.Identity {
	var out []identity.Identity
	switch m.Kind {
	case Application:
		for id := range m.TestDirect {
			out = append(out, id)
		}
		for id := range m.TestIndirect {
			out = append(out, id)
		}
	case Package:
		for id := range m.TestDeps {
			out = append(out, id)
		}
	}
	return out
}

// ResolvedVersion returns the version this manifest currently pins/declares
// for id, if any is exactly determined - for applications this is the
// pinned version from whichever map contains it; for packages, the exact
// version if the declared range is a single version (used when computing
// expected artifact fingerprints).
func (m *Manifest) ResolvedVersion(id identity.Identity) (semver.Version, bool) {
	if m.Kind == Application {
		for _, mp := range []map[identity.Identity]semver.Version{m.Direct, m.Indirect, m.TestDirect, m.TestIndirect} {
			if v, ok := mp[id]; ok {
				return v, true
			}
		}
		return semver.Version{}, false
	}
	if dc, ok := m.Deps[id]; ok {
		if v, ok := dc.Range.IsExact(); ok {
			return v, true
		}
	}
	if dc, ok := m.TestDeps[id]; ok {
		if v, ok := dc.Range.IsExact(); ok {
			return v, true
		}
	}
	return semver.Version{}, false
}
