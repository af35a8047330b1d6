package manifest

import (
	"testing"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/pkgcache"
	"github.com/elm-tooling/epm/internal/semver"
)

func id(s string) identity.Identity {
	i, err := identity.Parse(s)
	if err != nil {
		panic(err)
	}
	return i
}

func TestPromoteIndirectToDirect(t *testing.T) {
	m := NewApplication("0.19.1")
	json := id("elm/json")
	m.Indirect[json] = semver.MustParse("1.1.3")

	if !m.Promote(json) {
		t.Fatalf("Promote returned false, expected promotion")
	}
	if m.Find(json) != Direct {
		t.Errorf("Find(elm/json) = %v, want Direct", m.Find(json))
	}
	if _, ok := m.Indirect[json]; ok {
		t.Errorf("elm/json still present in Indirect after promotion")
	}
}

func TestPromoteNoOpWhenAlreadyDirect(t *testing.T) {
	m := NewApplication("0.19.1")
	core := id("elm/core")
	m.Direct[core] = semver.MustParse("1.0.5")

	if m.Promote(core) {
		t.Errorf("Promote on an already-direct package should be a no-op")
	}
}

func TestRemoveDoesNotPruneOrphans(t *testing.T) {
	m := NewApplication("0.19.1")
	core := id("elm/core")
	html := id("elm/html")
	m.Direct[html] = semver.MustParse("1.0.0")
	m.Indirect[core] = semver.MustParse("1.0.5")

	m.Remove(html)

	if _, ok := m.Indirect[core]; !ok {
		t.Errorf("Remove must not prune indirect dependencies of the removed package")
	}
}

func TestFindOrphanedPackages(t *testing.T) {
	m := NewApplication("0.19.1")
	htmlID := id("elm/html")
	coreID := id("elm/core")
	jsonID := id("elm/json")

	m.Direct[htmlID] = semver.MustParse("1.0.0")
	m.Indirect[coreID] = semver.MustParse("1.0.5")
	m.Indirect[jsonID] = semver.MustParse("1.1.3") // no longer required

	reader := pkgcache.NewMemory()
	reader.Put(htmlID, semver.MustParse("1.0.0"), []identity.Identity{coreID}, nil, "")

	orphans, err := m.FindOrphanedPackages(reader)
	if err != nil {
		t.Fatalf("FindOrphanedPackages: %s", err)
	}
	if len(orphans) != 1 || orphans[0] != jsonID {
		t.Errorf("orphans = %v, want [elm/json]", orphans)
	}
}

func TestApplyChangePreservingLocationSingleMap(t *testing.T) {
	m := NewApplication("0.19.1")
	core := id("elm/core")
	m.Indirect[core] = semver.MustParse("1.0.5")

	m.ApplyChangePreservingLocation(core, semver.MustParse("1.0.6"))

	if v := m.Indirect[core]; v.String() != "1.0.6" {
		t.Errorf("Indirect[elm/core] = %v, want 1.0.6", v)
	}
	if _, ok := m.Direct[core]; ok {
		t.Errorf("package should not have moved to Direct")
	}
}

func TestApplyChangePreservingLocationMalformedMultiMap(t *testing.T) {
	m := NewApplication("0.19.1")
	core := id("elm/core")
	// Malformed: present in two maps at once.
	m.Direct[core] = semver.MustParse("1.0.5")
	m.Indirect[core] = semver.MustParse("1.0.5")

	m.ApplyChangePreservingLocation(core, semver.MustParse("1.0.6"))

	if m.Direct[core].String() != "1.0.6" || m.Indirect[core].String() != "1.0.6" {
		t.Errorf("expected every occurrence updated, got Direct=%v Indirect=%v", m.Direct[core], m.Indirect[core])
	}
}

func TestApplyChangePreservingLocationAbsentAddsToDefault(t *testing.T) {
	m := NewApplication("0.19.1")
	core := id("elm/core")

	m.ApplyChangePreservingLocation(core, semver.MustParse("1.0.6"))

	if v, ok := m.Direct[core]; !ok || v.String() != "1.0.6" {
		t.Errorf("expected new entry in Direct, got %v (ok=%v)", v, ok)
	}
}

func TestRemoveApplicationAllFourMaps(t *testing.T) {
	m := NewApplication("0.19.1")
	core := id("elm/core")
	m.Direct[core] = semver.MustParse("1.0.5")
	m.TestDirect[core] = semver.MustParse("1.0.5")

	m.Remove(core)

	if m.Find(core) != None {
		t.Errorf("Find(elm/core) after Remove = %v, want None", m.Find(core))
	}
}
