package registry

import (
	"context"
	"strings"
	"testing"
)

func TestDecodeIndexedBuildsQueryableRegistry(t *testing.T) {
	const doc = `{
		"packages": {
			"elm/html": [
				{"version": "2.0.0", "status": "valid", "deps": {"elm/core": "1.0.0 <= v < 2.0.0"}},
				{"version": "3.0.0", "status": "invalid", "deps": {}}
			]
		}
	}`

	idx, err := DecodeIndexed(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeIndexed: %s", err)
	}

	html := idOf(t, "elm/html")
	vs, err := idx.FindVersions(context.Background(), html)
	if err != nil {
		t.Fatalf("FindVersions: %s", err)
	}
	if len(vs) != 1 || vs[0].String() != "2.0.0" {
		t.Fatalf("FindVersions = %v, want only [2.0.0] (invalid excluded)", vs)
	}

	deps, err := idx.Dependencies(context.Background(), html, vs[0])
	if err != nil {
		t.Fatalf("Dependencies: %s", err)
	}
	core := idOf(t, "elm/core")
	if _, ok := deps[core]; !ok {
		t.Errorf("Dependencies missing elm/core: %v", deps)
	}
}

func TestDecodeIndexedRejectsUnknownStatus(t *testing.T) {
	const doc = `{"packages": {"elm/core": [{"version": "1.0.0", "status": "maybe"}]}}`
	if _, err := DecodeIndexed(strings.NewReader(doc)); err == nil {
		t.Fatal("expected an error for an unknown status value")
	}
}
