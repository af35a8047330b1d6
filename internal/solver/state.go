package solver

import (
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/manifest"
	"github.com/elm-tooling/epm/internal/semver"
)

// StateFromManifest builds the ProjectState the ladder operates on from the
// project's current manifest. For an Application manifest this is a direct
// read of its four pinned-version maps. For a Package manifest - which
// declares ranges, not pins - each declared dependency contributes its
// range's lower bound as a best-effort "currently selected" version, placed
// in Direct/TestDirect only (packages have no indirect map of their own).
//
// This conversion is the driver's job rather than the solver core's, so
// Solve/ladder stay ignorant of which manifest kind produced their roots -
// see DESIGN.md's note on why ProjectState is a bare struct, not a method
// on *manifest.Manifest.
func StateFromManifest(m *manifest.Manifest) ProjectState {
	state := ProjectState{
		Direct:       make(map[identity.Identity]semver.Version),
		Indirect:     make(map[identity.Identity]semver.Version),
		TestDirect:   make(map[identity.Identity]semver.Version),
		TestIndirect: make(map[identity.Identity]semver.Version),
	}
	switch m.Kind {
	case manifest.Application:
		for id, v := range m.Direct {
			state.Direct[id] = v
		}
		for id, v := range m.Indirect {
			state.Indirect[id] = v
		}
		for id, v := range m.TestDirect {
			state.TestDirect[id] = v
		}
		for id, v := range m.TestIndirect {
			state.TestIndirect[id] = v
		}
	case manifest.Package:
		for id, dc := range m.Deps {
			state.Direct[id] = dc.Range.Lower().Version()
		}
		for id, dc := range m.TestDeps {
			state.TestDirect[id] = dc.Range.Lower().Version()
		}
	}
	return state
}
