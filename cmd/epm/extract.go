package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/elm-tooling/epm/internal/epmctx"
	"github.com/elm-tooling/epm/internal/epmerr"
	"github.com/elm-tooling/epm/internal/fsutil"
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/manifest"
	"github.com/elm-tooling/epm/internal/modgraph"
	"github.com/elm-tooling/epm/internal/pkgcache"
	"github.com/elm-tooling/epm/internal/semver"
)

type extractCommand struct{}

func (cmd *extractCommand) Name() string      { return "extract" }
func (cmd *extractCommand) Args() string      { return "PACKAGE TARGET PATH..." }
func (cmd *extractCommand) ShortHelp() string { return "split selected modules out into their own package" }
func (cmd *extractCommand) Register(fs *flag.FlagSet) {}

// Run implements `extract PACKAGE TARGET PATH...`: validates that no
// selected module imports a project-local module outside the selection,
// then - if clean - creates TARGET as a new package directory, copies
// the selected files into it, derives its dependency set from the
// foreign modules the selection imports, and registers PACKAGE as a
// dependency of the current project. A leaky import aborts with no
// files moved and no manifest change.
func (cmd *extractCommand) Run(ctx *epmctx.Context, args []string) error {
	if len(args) < 3 {
		return epmerr.New(epmerr.InvalidPackage, fmt.Errorf("usage: epm extract PACKAGE TARGET PATH..."))
	}
	pkgID, err := identity.Parse(args[0])
	if err != nil {
		return epmerr.Wrapf(epmerr.InvalidPackage, err, "parsing %q", args[0])
	}
	targetDir := args[1]
	paths := args[2:]

	m, err := loadManifest(ctx)
	if err != nil {
		return epmerr.Wrapf(epmerr.ParseError, err, "reading %s", ctx.ManifestPath())
	}
	srcDirs := make([]string, 0, len(m.SourceDirs()))
	for _, d := range m.SourceDirs() {
		srcDirs = append(srcDirs, filepath.Join(ctx.WorkingDir, d))
	}
	parser := modgraph.RegexSkeletonParser{}

	selected := make(map[string]string, len(paths)) // module name -> path
	skeletons := make(map[string]modgraph.Skeleton, len(paths))
	for _, p := range paths {
		sk, err := parser.Parse(p)
		if err != nil {
			return epmerr.Wrapf(epmerr.ParseError, err, "parsing %s", p)
		}
		selected[sk.ModuleName] = p
		skeletons[sk.ModuleName] = sk
	}

	names := make([]string, 0, len(selected))
	for name := range selected {
		names = append(names, name)
	}
	sort.Strings(names)

	foreignSet := make(map[string]bool)
	for _, name := range names {
		sk := skeletons[name]
		for _, imp := range sk.Imports {
			if _, ok := selected[imp]; ok {
				continue
			}
			if localPath, ok := fsutil.ResolveModulePath(imp, srcDirs); ok {
				return epmerr.New(epmerr.InvalidPackage, fmt.Errorf("%s imports %s, which is outside the extracted selection (%s)", name, imp, localPath))
			}
			foreignSet[imp] = true
		}
	}

	if !confirm(ctx, fmt.Sprintf("Extract %d module(s) into %s as %s?", len(names), targetDir, pkgID)) {
		return errAborted
	}

	cache := openCache(ctx)
	deps, err := foreignDependencies(m, cache, foreignSet)
	if err != nil {
		return epmerr.Wrapf(epmerr.FSError, err, "resolving foreign dependencies")
	}

	if err := writeExtractedPackage(pkgID, targetDir, names, selected, deps); err != nil {
		return epmerr.Wrapf(epmerr.FSError, err, "writing extracted package")
	}

	v := semver.New(1, 0, 0)
	m.AddOrUpdate(pkgID, v, manifest.AddOrUpdateOptions{IsDirect: true})
	if err := manifest.WriteFile(m, ctx.ManifestPath()); err != nil {
		return epmerr.Wrapf(epmerr.FSError, err, "writing %s", ctx.ManifestPath())
	}
	ctx.Log.Printf("Extracted %s into %s.", pkgID, targetDir)
	return nil
}

// foreignDependencies maps every foreign module name in foreignSet to the
// project package that exposes it, by scanning the current manifest's own
// production dependencies through the package cache (the same exposedBy
// index internal/buildplan builds for module classification).
func foreignDependencies(m *manifest.Manifest, cache pkgcache.Reader, foreignSet map[string]bool) (map[identity.Identity]semver.Version, error) {
	deps := make(map[identity.Identity]semver.Version)
	if len(foreignSet) == 0 {
		return deps, nil
	}
	for _, id := range m.AllProductionIdentities() {
		v, ok := m.ResolvedVersion(id)
		if !ok {
			continue
		}
		mods, err := cache.ExposedModules(id, v)
		if err != nil {
			continue
		}
		for _, mod := range mods {
			if foreignSet[mod] {
				deps[id] = v
			}
		}
	}
	return deps, nil
}

func writeExtractedPackage(pkgID identity.Identity, targetDir string, names []string, selected map[string]string, deps map[identity.Identity]semver.Version) error {
	srcDir := filepath.Join(targetDir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return err
	}
	for _, name := range names {
		data, err := fsutil.ReadFile(selected[name])
		if err != nil {
			return err
		}
		dest := filepath.Join(srcDir, name+".elm")
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
	}

	pkg := manifest.NewPackage(pkgID.String(), "0.19.1")
	pkg.Version = semver.New(1, 0, 0)
	pkg.ExposedModules = append([]string(nil), names...)
	for id, v := range deps {
		pkg.AddOrUpdate(id, v, manifest.AddOrUpdateOptions{})
	}
	return manifest.WriteFile(pkg, filepath.Join(targetDir, "elm.json"))
}
