package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/manifest"
	"github.com/elm-tooling/epm/internal/semver"
)

// newProject lays out a temp working directory with an application
// elm.json plus an ELM_HOME (registry.json and an empty package cache) and
// returns a Config ready to drive through Config.Run, exercising a real
// *Config* over a real temp tree rather than mocking the command interface.
func newProject(t *testing.T) (*Config, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	home := t.TempDir()
	t.Setenv("ELM_HOME", home)

	m := manifest.NewApplication("0.19.1")
	if err := manifest.WriteFile(m, filepath.Join(dir, "elm.json")); err != nil {
		t.Fatalf("writing fixture elm.json: %s", err)
	}

	var out, errOut bytes.Buffer
	cfg := &Config{
		WorkingDir: dir,
		Stdout:     &out,
		Stderr:     &errOut,
	}
	return cfg, &out, &errOut
}

func writeRegistry(t *testing.T, home, json string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(home, "registry.json"), []byte(json), 0o644); err != nil {
		t.Fatalf("writing registry fixture: %s", err)
	}
}

func readManifest(t *testing.T, dir string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.ReadFile(filepath.Join(dir, "elm.json"))
	if err != nil {
		t.Fatalf("reading elm.json: %s", err)
	}
	return m
}

const oneLeafPackageRegistry = `{
  "packages": {
    "x/a": [
      {"version": "1.0.0", "status": "valid", "deps": {}}
    ]
  }
}`

func TestConfigRunUnknownCommand(t *testing.T) {
	cfg, _, errOut := newProject(t)
	cfg.Args = []string{"epm", "bogus"}
	if code := cfg.Run(); code != 1 {
		t.Fatalf("Run() = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "no such command") {
		t.Errorf("stderr = %q, want mention of unknown command", errOut.String())
	}
}

func TestConfigRunNoArgsPrintsUsage(t *testing.T) {
	cfg, _, errOut := newProject(t)
	cfg.Args = []string{"epm"}
	if code := cfg.Run(); code != 1 {
		t.Fatalf("Run() = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "Usage:") {
		t.Errorf("stderr = %q, want usage text", errOut.String())
	}
}

func TestInstallAddsDirectDependency(t *testing.T) {
	cfg, _, errOut := newProject(t)
	writeRegistry(t, os.Getenv("ELM_HOME"), oneLeafPackageRegistry)

	cfg.Args = []string{"epm", "install", "-yes", "x/a"}
	if code := cfg.Run(); code != 0 {
		t.Fatalf("Run() = %d, stderr = %s", code, errOut.String())
	}

	m := readManifest(t, cfg.WorkingDir)
	id, _ := identity.Parse("x/a")
	v, ok := m.Direct[id]
	if !ok {
		t.Fatalf("x/a not present in Direct after install; manifest = %+v", m.Direct)
	}
	if v.String() != "1.0.0" {
		t.Errorf("installed version = %s, want 1.0.0", v)
	}
}

func TestInstallUnknownPackageFails(t *testing.T) {
	cfg, _, errOut := newProject(t)
	writeRegistry(t, os.Getenv("ELM_HOME"), oneLeafPackageRegistry)

	cfg.Args = []string{"epm", "install", "-yes", "x/nonexistent"}
	if code := cfg.Run(); code != 1 {
		t.Fatalf("Run() = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "epm:") {
		t.Errorf("stderr = %q, want an epm error line", errOut.String())
	}
}

func TestInstallDeclinedConfirmationAborts(t *testing.T) {
	cfg, _, _ := newProject(t)
	writeRegistry(t, os.Getenv("ELM_HOME"), oneLeafPackageRegistry)
	stdin = strings.NewReader("n\n")
	t.Cleanup(func() { stdin = os.Stdin })

	cfg.Args = []string{"epm", "install", "x/a"}
	if code := cfg.Run(); code != 0 {
		t.Fatalf("Run() = %d, want 0 (declined confirmation still exits clean)", code)
	}
	m := readManifest(t, cfg.WorkingDir)
	if len(m.Direct) != 0 {
		t.Errorf("manifest mutated despite declined confirmation: %+v", m.Direct)
	}
}

func TestRemoveRequiresExistingDependency(t *testing.T) {
	cfg, _, errOut := newProject(t)
	cfg.Args = []string{"epm", "remove", "-yes", "x/a"}
	if code := cfg.Run(); code != 1 {
		t.Fatalf("Run() = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "not a dependency") {
		t.Errorf("stderr = %q, want 'not a dependency'", errOut.String())
	}
}

func TestRemoveDropsDirectDependency(t *testing.T) {
	cfg, _, errOut := newProject(t)
	id, _ := identity.Parse("x/a")
	m := readManifest(t, cfg.WorkingDir)
	m.Direct[id] = semver.MustParse("1.0.0")
	if err := manifest.WriteFile(m, filepath.Join(cfg.WorkingDir, "elm.json")); err != nil {
		t.Fatalf("seeding manifest: %s", err)
	}

	cfg.Args = []string{"epm", "remove", "-yes", "x/a"}
	if code := cfg.Run(); code != 0 {
		t.Fatalf("Run() = %d, stderr = %s", code, errOut.String())
	}

	after := readManifest(t, cfg.WorkingDir)
	if _, ok := after.Direct[id]; ok {
		t.Error("x/a still present in Direct after remove")
	}
}

func TestStatusReportsUncachedDependency(t *testing.T) {
	cfg, out, errOut := newProject(t)
	id, _ := identity.Parse("x/a")
	m := readManifest(t, cfg.WorkingDir)
	m.Indirect[id] = semver.MustParse("1.0.0")
	if err := manifest.WriteFile(m, filepath.Join(cfg.WorkingDir, "elm.json")); err != nil {
		t.Fatalf("seeding manifest: %s", err)
	}

	cfg.Args = []string{"epm", "status"}
	if code := cfg.Run(); code != 0 {
		t.Fatalf("Run() = %d, stderr = %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "x/a") {
		t.Errorf("stdout = %q, want a line for x/a", out.String())
	}
}

func TestCacheMissingReportsNothingWhenCacheEmpty(t *testing.T) {
	cfg, out, errOut := newProject(t)
	cfg.Args = []string{"epm", "cache", "missing"}
	if code := cfg.Run(); code != 0 {
		t.Fatalf("Run() = %d, stderr = %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "Nothing missing") {
		t.Errorf("stdout = %q, want 'Nothing missing'", out.String())
	}
}

func TestCacheMissingRequiresMissingLiteral(t *testing.T) {
	cfg, _, errOut := newProject(t)
	cfg.Args = []string{"epm", "cache", "bogus"}
	if code := cfg.Run(); code != 1 {
		t.Fatalf("Run() = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "usage") {
		t.Errorf("stderr = %q, want usage hint", errOut.String())
	}
}

func TestExtractAbortsOnLeakyImport(t *testing.T) {
	cfg, _, errOut := newProject(t)
	srcDir := filepath.Join(cfg.WorkingDir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	foo := filepath.Join(srcDir, "Foo.elm")
	bar := filepath.Join(srcDir, "Bar.elm")
	if err := os.WriteFile(foo, []byte("module Foo exposing (..)\nimport Bar\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bar, []byte("module Bar exposing (..)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(cfg.WorkingDir, "extracted")
	cfg.Args = []string{"epm", "extract", "-yes", "me/extracted", target, foo}
	if code := cfg.Run(); code != 1 {
		t.Fatalf("Run() = %d, want 1 (leaky import must abort)", code)
	}
	if !strings.Contains(errOut.String(), "imports Bar") {
		t.Errorf("stderr = %q, want mention of the leaky import", errOut.String())
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("extract created %s despite the leaky import; no files should move", target)
	}
	m := readManifest(t, cfg.WorkingDir)
	if len(m.Direct) != 0 {
		t.Errorf("manifest mutated despite the leaky import: %+v", m.Direct)
	}
}

func TestExtractSplitsCleanSelection(t *testing.T) {
	cfg, _, errOut := newProject(t)
	srcDir := filepath.Join(cfg.WorkingDir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	foo := filepath.Join(srcDir, "Foo.elm")
	if err := os.WriteFile(foo, []byte("module Foo exposing (..)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(cfg.WorkingDir, "extracted")
	cfg.Args = []string{"epm", "extract", "-yes", "me/extracted", target, foo}
	if code := cfg.Run(); code != 0 {
		t.Fatalf("Run() = %d, stderr = %s", code, errOut.String())
	}

	if _, err := os.Stat(filepath.Join(target, "src", "Foo.elm")); err != nil {
		t.Errorf("extracted file missing: %s", err)
	}
	if _, err := os.Stat(filepath.Join(target, "elm.json")); err != nil {
		t.Errorf("extracted elm.json missing: %s", err)
	}

	m := readManifest(t, cfg.WorkingDir)
	pkgID, _ := identity.Parse("me/extracted")
	v, ok := m.Direct[pkgID]
	if !ok {
		t.Fatalf("me/extracted not registered as a direct dependency")
	}
	if v.String() != "1.0.0" {
		t.Errorf("registered version = %s, want 1.0.0", v)
	}
}
