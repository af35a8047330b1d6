package manifest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/semver"
)

const sampleApplication = `{
    "type": "application",
    "source-directories": [
        "src"
    ],
    "elm-version": "0.19.1",
    "dependencies": {
        "direct": {
            "elm/core": "1.0.5"
        },
        "indirect": {}
    },
    "test-dependencies": {
        "direct": {},
        "indirect": {}
    }
}
`

func TestReadApplication(t *testing.T) {
	m, err := Read(strings.NewReader(sampleApplication))
	if err != nil {
		t.Fatalf("Read: unexpected error: %s", err)
	}
	if m.Kind != Application {
		t.Fatalf("Kind = %v, want Application", m.Kind)
	}
	id, _ := identity.Parse("elm/core")
	v, ok := m.Direct[id]
	if !ok || v.String() != "1.0.5" {
		t.Errorf("Direct[elm/core] = %v (ok=%v), want 1.0.5", v, ok)
	}
}

const samplePackage = `{
    "type": "package",
    "name": "elm/html",
    "version": "2.0.0",
    "license": "BSD-3-Clause",
    "exposed-modules": [
        "Html",
        "Html.Attributes"
    ],
    "dependencies": {
        "elm/core": "1.0.0 <= v < 2.0.0"
    },
    "test-dependencies": {}
}
`

func TestReadPackage(t *testing.T) {
	m, err := Read(strings.NewReader(samplePackage))
	if err != nil {
		t.Fatalf("Read: unexpected error: %s", err)
	}
	if m.Kind != Package {
		t.Fatalf("Kind = %v, want Package", m.Kind)
	}
	if m.Name != "elm/html" {
		t.Errorf("Name = %q, want elm/html", m.Name)
	}
	id, _ := identity.Parse("elm/core")
	dc, ok := m.Deps[id]
	if !ok {
		t.Fatalf("Deps[elm/core] missing")
	}
	if !dc.Range.Contains(semver.MustParse("1.5.0")) {
		t.Errorf("expected range to contain 1.5.0")
	}
}

func TestWriteRoundTripsReadableJSON(t *testing.T) {
	m, err := Read(strings.NewReader(sampleApplication))
	if err != nil {
		t.Fatalf("Read: unexpected error: %s", err)
	}
	out, err := Write(m)
	if err != nil {
		t.Fatalf("Write: unexpected error: %s", err)
	}
	m2, err := Read(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("re-Read of written manifest failed: %s\n%s", err, out)
	}
	id, _ := identity.Parse("elm/core")
	if v, ok := m2.Direct[id]; !ok || v.String() != "1.0.5" {
		t.Errorf("round-tripped Direct[elm/core] = %v (ok=%v)", v, ok)
	}
	if !bytes.HasSuffix(out, []byte("\n")) {
		t.Errorf("written manifest must end with a newline")
	}
}

func TestWriteEmptyDependenciesRenderOnOneLine(t *testing.T) {
	m := NewApplication("0.19.1")
	out, err := Write(m)
	if err != nil {
		t.Fatalf("Write: unexpected error: %s", err)
	}
	if !bytes.Contains(out, []byte(`"direct": {}`)) {
		t.Errorf("expected empty direct map to render as {} on one line, got:\n%s", out)
	}
}

func TestWriteCanonicityIsOrderIndependent(t *testing.T) {
	idA, _ := identity.Parse("elm/browser")
	idB, _ := identity.Parse("elm/core")

	m1 := NewApplication("0.19.1")
	m1.Direct[idA] = semver.MustParse("1.0.0")
	m1.Direct[idB] = semver.MustParse("1.0.5")

	m2 := NewApplication("0.19.1")
	m2.Direct[idB] = semver.MustParse("1.0.5")
	m2.Direct[idA] = semver.MustParse("1.0.0")

	out1, err := Write(m1)
	if err != nil {
		t.Fatalf("Write(m1): %s", err)
	}
	out2, err := Write(m2)
	if err != nil {
		t.Fatalf("Write(m2): %s", err)
	}
	if !bytes.Equal(out1, out2) {
		t.Errorf("writes of the same logical manifest with different insertion order differ:\n%s\n---\n%s", out1, out2)
	}
}

func TestPackageExactVersionWrittenAsNextMajorConstraint(t *testing.T) {
	m := NewPackage("me/pkg", "0.19.1")
	id, _ := identity.Parse("elm/core")
	m.AddOrUpdate(id, semver.MustParse("1.0.5"), AddOrUpdateOptions{})
	dc := m.Deps[id]
	if dc.Range.Format() != "1.0.5 <= v < 2.0.0" {
		t.Errorf("package dependency constraint = %q, want next-major form", dc.Range.Format())
	}
}

func TestPackageConstraintAlreadyInRangeFormKeptVerbatim(t *testing.T) {
	m, err := Read(strings.NewReader(samplePackage))
	if err != nil {
		t.Fatalf("Read: %s", err)
	}
	id, _ := identity.Parse("elm/core")
	out, err := Write(m)
	if err != nil {
		t.Fatalf("Write: %s", err)
	}
	if !bytes.Contains(out, []byte(`"elm/core": "1.0.0 <= v < 2.0.0"`)) {
		t.Errorf("expected verbatim range string preserved, got:\n%s", out)
	}
	_ = id
}
