package fingerprint

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/semver"
)

func entry(author, name, v string) Entry {
	return Entry{Package: identity.Identity{Author: author, Name: name}, Version: semver.MustParse(v)}
}

func TestRoundTripCompactAndExtended(t *testing.T) {
	set := Set{
		Map{entry("elm", "core", "1.0.5"), entry("elm", "json", "1.1.3")},
		Map{entry("elm", "core", "2.0.0"), entry("elm", "time", "300.1.2")}, // extended form
	}

	var buf bytes.Buffer
	if err := Encode(&buf, set); err != nil {
		t.Fatalf("Encode: %s", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}

	if len(got) != len(set) {
		t.Fatalf("got %d fingerprints, want %d", len(got), len(set))
	}
	for i, m := range set {
		if !m.Equal(got[i]) {
			t.Errorf("fingerprint %d: got %v, want %v", i, got[i], m)
		}
	}
}

func TestSetSizeCapEnforced(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0, 0, 0, 0x03, 0xE9}) // 1001, over MaxSetSize
	if _, err := Decode(&buf); err == nil {
		t.Errorf("expected error for set_size over cap")
	}
}

func TestMapEqualIgnoresOrder(t *testing.T) {
	a := Map{entry("elm", "core", "1.0.0"), entry("elm", "json", "1.0.0")}
	b := Map{entry("elm", "json", "1.0.0"), entry("elm", "core", "1.0.0")}
	if !a.Equal(b) {
		t.Errorf("maps with same entries in different order should be equal")
	}
}

func TestFreshnessPresentStaleMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifacts.dat")

	expected := Map{entry("elm", "core", "1.0.5")}
	stored := Set{expected}

	var buf bytes.Buffer
	if err := Encode(&buf, stored); err != nil {
		t.Fatalf("Encode: %s", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %s", err)
	}

	status, err := CheckFile(path, expected)
	if err != nil {
		t.Fatalf("CheckFile: %s", err)
	}
	if status != Present {
		t.Errorf("status = %v, want Present", status)
	}

	mismatched := Map{entry("elm", "core", "2.0.0")}
	status, err = CheckFile(path, mismatched)
	if err != nil {
		t.Fatalf("CheckFile: %s", err)
	}
	if status != Stale {
		t.Errorf("status = %v, want Stale", status)
	}

	status, err = CheckFile(filepath.Join(dir, "missing.dat"), expected)
	if err != nil {
		t.Fatalf("CheckFile: %s", err)
	}
	if status != Missing {
		t.Errorf("status = %v, want Missing", status)
	}

	if err := os.WriteFile(path+".bad", []byte{0xFF, 0xFF}, 0o644); err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	status, err = CheckFile(path+".bad", expected)
	if err != nil {
		t.Fatalf("CheckFile: %s", err)
	}
	if status != Stale {
		t.Errorf("status for unparseable file = %v, want Stale", status)
	}
}
