package solver

import (
	"context"
	"testing"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/registry"
	"github.com/elm-tooling/epm/internal/semver"
)

func idOf(t *testing.T, s string) identity.Identity {
	t.Helper()
	id, err := identity.Parse(s)
	if err != nil {
		t.Fatalf("identity.Parse(%q): %s", s, err)
	}
	return id
}

func TestSolveSimpleDependencyChain(t *testing.T) {
	r := registry.NewIndexed()
	core := idOf(t, "elm/core")
	html := idOf(t, "elm/html")
	r.Put(core, semver.MustParse("1.0.5"), registry.Valid, nil)
	r.Put(html, semver.MustParse("2.0.0"), registry.Valid, map[identity.Identity]semver.Range{
		core: semver.UntilNextMajor(semver.MustParse("1.0.0")),
	})
	r.Put(html, semver.MustParse("1.0.0"), registry.Valid, nil)

	roots := map[identity.Identity]semver.Range{html: semver.Exact(semver.MustParse("2.0.0"))}
	selected, failure := Solve(context.Background(), r, roots, false)
	if failure != nil {
		t.Fatalf("Solve: %s", failure)
	}
	if v, ok := selected[core]; !ok || v.String() != "1.0.5" {
		t.Errorf("selected[elm/core] = %v (ok=%v), want 1.0.5", v, ok)
	}
	if v, ok := selected[html]; !ok || v.String() != "2.0.0" {
		t.Errorf("selected[elm/html] = %v (ok=%v), want 2.0.0", v, ok)
	}
}

func TestSolveIsDeterministic(t *testing.T) {
	r := registry.NewIndexed()
	a := idOf(t, "x/a")
	b := idOf(t, "x/b")
	r.Put(a, semver.MustParse("2.0.0"), registry.Valid, nil)
	r.Put(a, semver.MustParse("1.0.0"), registry.Valid, nil)
	r.Put(b, semver.MustParse("1.5.0"), registry.Valid, map[identity.Identity]semver.Range{
		a: semver.UntilNextMajor(semver.MustParse("1.0.0")),
	})

	roots := map[identity.Identity]semver.Range{b: semver.Exact(semver.MustParse("1.5.0"))}

	first, f1 := Solve(context.Background(), r, roots, false)
	if f1 != nil {
		t.Fatalf("Solve: %s", f1)
	}
	second, f2 := Solve(context.Background(), r, roots, false)
	if f2 != nil {
		t.Fatalf("Solve: %s", f2)
	}
	if first[a].String() != second[a].String() || first[b].String() != second[b].String() {
		t.Errorf("non-deterministic solve: %v vs %v", first, second)
	}
	if first[a].String() != "1.0.0" {
		t.Errorf("selected[x/a] = %v, want 1.0.0 (within b's next-major range)", first[a])
	}
}

func TestSolveNoSolutionBlockedByReported(t *testing.T) {
	r := registry.NewIndexed()
	pkgA := idOf(t, "pkg/a")
	targetX := idOf(t, "target/x")
	r.Put(pkgA, semver.MustParse("1.0.0"), registry.Valid, map[identity.Identity]semver.Range{
		targetX: semver.UntilNextMajor(semver.MustParse("1.0.0")),
	})
	r.Put(targetX, semver.MustParse("2.0.0"), registry.Valid, nil)
	r.Put(targetX, semver.MustParse("1.0.0"), registry.Valid, nil)

	roots := map[identity.Identity]semver.Range{
		pkgA:    semver.Exact(semver.MustParse("1.0.0")),
		targetX: semver.Exact(semver.MustParse("2.0.0")),
	}
	_, failure := Solve(context.Background(), r, roots, false)
	if failure == nil {
		t.Fatalf("expected NO_SOLUTION failure")
	}
	if failure.Kind != NoSolution {
		t.Errorf("Kind = %v, want NoSolution", failure.Kind)
	}
	if len(failure.BlockedBy) == 0 || failure.BlockedBy[0] != pkgA {
		t.Errorf("BlockedBy = %v, want [pkg/a]", failure.BlockedBy)
	}
}

func TestSolveInvalidVersionsExcluded(t *testing.T) {
	r := registry.NewIndexed()
	pkg := idOf(t, "x/y")
	r.Put(pkg, semver.MustParse("2.0.0"), registry.Invalid, nil)
	r.Put(pkg, semver.MustParse("1.0.0"), registry.Valid, nil)

	roots := map[identity.Identity]semver.Range{pkg: semver.Any()}
	selected, failure := Solve(context.Background(), r, roots, false)
	if failure != nil {
		t.Fatalf("Solve: %s", failure)
	}
	if selected[pkg].String() != "1.0.0" {
		t.Errorf("selected invalid version %v, want 1.0.0", selected[pkg])
	}
}

func TestDiffSelectionsOmitsUnchanged(t *testing.T) {
	core := idOf(t, "elm/core")
	html := idOf(t, "elm/html")
	before := map[identity.Identity]semver.Version{core: semver.MustParse("1.0.5"), html: semver.MustParse("1.0.0")}
	after := map[identity.Identity]semver.Version{core: semver.MustParse("1.0.5"), html: semver.MustParse("2.0.0")}

	changes := DiffSelections(before, after)
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1 (core unchanged omitted): %v", len(changes), changes)
	}
	if changes[0].Package != html || changes[0].Kind != Upgrade {
		t.Errorf("change = %+v, want upgrade of elm/html", changes[0])
	}
}

func TestPartitionClassifiesRequests(t *testing.T) {
	direct := map[identity.Identity]semver.Version{idOf(t, "elm/html"): semver.MustParse("1.0.0")}
	indirect := map[identity.Identity]semver.Version{idOf(t, "elm/json"): semver.MustParse("1.1.3")}

	got := Partition([]identity.Identity{idOf(t, "elm/html"), idOf(t, "elm/json"), idOf(t, "elm/url")}, direct, indirect)
	if got[idOf(t, "elm/html")] != PartitionAlreadyDirect {
		t.Errorf("elm/html partition = %v, want AlreadyDirect", got[idOf(t, "elm/html")])
	}
	if got[idOf(t, "elm/json")] != PartitionPromote {
		t.Errorf("elm/json partition = %v, want Promote", got[idOf(t, "elm/json")])
	}
	if got[idOf(t, "elm/url")] != PartitionSolve {
		t.Errorf("elm/url partition = %v, want Solve", got[idOf(t, "elm/url")])
	}
}
