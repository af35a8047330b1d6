package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/elm-tooling/epm/internal/epmctx"
	"github.com/elm-tooling/epm/internal/epmerr"
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/manifest"
	"github.com/elm-tooling/epm/internal/registry"
	"github.com/elm-tooling/epm/internal/semver"
	"github.com/elm-tooling/epm/internal/solver"
)

type installCommand struct {
	test       bool
	upgradeAll bool
	major      string
}

func (cmd *installCommand) Name() string      { return "install" }
func (cmd *installCommand) Args() string      { return "[PACKAGE[@VERSION]...]" }
func (cmd *installCommand) ShortHelp() string { return "add or update project dependencies" }

func (cmd *installCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.test, "test", false, "install as a test-only dependency")
	fs.BoolVar(&cmd.upgradeAll, "upgrade-all", false, "accepted but not read; install's solve is the same with or without it")
	fs.StringVar(&cmd.major, "major", "", "allow PACKAGE to move across a major version boundary")
}

// target is one parsed PACKAGE[@VERSION] install argument.
type target struct {
	id      identity.Identity
	version *semver.Version
}

func parseTargets(args []string) ([]target, error) {
	targets := make([]target, 0, len(args))
	for _, a := range args {
		spec, versionStr, pinned := strings.Cut(a, "@")
		id, err := identity.Parse(spec)
		if err != nil {
			return nil, epmerr.Wrapf(epmerr.InvalidPackage, err, "parsing install target %q", a)
		}
		t := target{id: id}
		if pinned {
			v, err := semver.Parse(versionStr)
			if err != nil {
				return nil, epmerr.Wrapf(epmerr.InvalidPackage, err, "parsing version for %s", spec)
			}
			t.version = &v
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// Run implements `install [--test] [--upgrade-all] [--major P] [--yes]
// PACKAGE[@VERSION]...`: an all-or-nothing multi-package install,
// classifying each target as already-direct (no-op), promotable
// (already in the production indirect map, just moved to direct), or
// solver-bound, per solver.Partition.
func (cmd *installCommand) Run(ctx *epmctx.Context, args []string) error {
	if len(args) == 0 {
		return epmerr.New(epmerr.InvalidPackage, fmt.Errorf("install requires at least one PACKAGE argument"))
	}
	if cmd.major != "" && len(args) > 1 {
		return epmerr.New(epmerr.InvalidPackage, fmt.Errorf("--major only applies to a single-package install"))
	}

	targets, err := parseTargets(args)
	if err != nil {
		return err
	}

	m, err := loadManifest(ctx)
	if err != nil {
		return epmerr.Wrapf(epmerr.ParseError, err, "reading %s", ctx.ManifestPath())
	}

	idx, err := openRegistry(ctx)
	if err != nil {
		return epmerr.Wrapf(epmerr.FSError, err, "opening registry")
	}

	direct, indirect := productionMaps(m)
	ids := make([]identity.Identity, len(targets))
	for i, t := range targets {
		ids[i] = t.id
	}
	partition := solver.Partition(ids, direct, indirect)

	driver := &solver.Driver{Provider: idx, Offline: ctx.Offline}
	state := solver.StateFromManifest(m)
	ctxBg := context.Background()

	changes := map[identity.Identity]*semver.Version{}
	for _, t := range targets {
		switch partition[t.id] {
		case solver.PartitionAlreadyDirect:
			ctx.Log.Vlogf("%s is already a direct dependency", t.id)
		case solver.PartitionPromote:
			ctx.Log.Vlogf("promoting %s to direct", t.id)
		case solver.PartitionSolve:
			var selected map[identity.Identity]semver.Version
			var failure *solver.Failure
			switch {
			case t.version != nil:
				selected, failure = driver.InstallPinned(ctxBg, state, t.id, *t.version)
			case cmd.major != "" && cmd.major == t.id.String():
				selected, failure = driver.InstallMajor(ctxBg, state, t.id)
			default:
				selected, failure = driver.InstallUnpinned(ctxBg, state, t.id)
			}
			if failure != nil {
				return translateSolverFailure(idx, t.id, failure)
			}
			for id, v := range selected {
				v := v
				changes[id] = &v
			}
		}
	}

	requested := make(map[identity.Identity]bool, len(targets))
	for _, t := range targets {
		requested[t.id] = true
	}
	for _, t := range targets {
		if partition[t.id] == solver.PartitionPromote {
			m.Promote(t.id)
		}
	}
	for id, v := range changes {
		applyResolvedVersion(m, id, *v, requested[id], cmd.test)
	}

	if !confirm(ctx, "Write elm.json?") {
		return errAborted
	}
	if err := manifest.WriteFile(m, ctx.ManifestPath()); err != nil {
		return epmerr.Wrapf(epmerr.FSError, err, "writing %s", ctx.ManifestPath())
	}
	ctx.Log.Printf("Installed %d package(s).", len(targets))
	return nil
}

func productionMaps(m *manifest.Manifest) (direct, indirect map[identity.Identity]semver.Version) {
	if m.Kind == manifest.Application {
		return m.Direct, m.Indirect
	}
	direct = make(map[identity.Identity]semver.Version, len(m.Deps))
	for id, dc := range m.Deps {
		direct[id] = dc.Range.Lower().Version()
	}
	return direct, map[identity.Identity]semver.Version{}
}

// applyResolvedVersion writes id's solved version v into m, marking it
// direct (not test) only when it is the exact target the user requested;
// every other solved package is an indirect/transitive addition.
func applyResolvedVersion(m *manifest.Manifest, id identity.Identity, v semver.Version, isTarget, isTest bool) {
	if m.Kind == manifest.Package {
		m.AddOrUpdate(id, v, manifest.AddOrUpdateOptions{IsTest: isTest && isTarget})
		return
	}
	m.AddOrUpdate(id, v, manifest.AddOrUpdateOptions{
		IsTest:      isTest && isTarget,
		IsDirect:    isTarget,
		RemoveFirst: true,
	})
}

// translateSolverFailure converts a *solver.Failure into the epmerr.Error
// the CLI boundary surfaces, attaching nearest-name suggestions and
// available-version hints for an invalid target.
func translateSolverFailure(idx *registry.Indexed, target identity.Identity, failure *solver.Failure) error {
	var kind epmerr.Kind
	switch failure.Kind {
	case solver.NoSolution:
		kind = epmerr.NoSolution
	case solver.NoOfflineSolution:
		kind = epmerr.NoOfflineSolution
	case solver.NetworkError:
		kind = epmerr.NetworkError
	default:
		kind = epmerr.InvalidPackage
	}

	e := epmerr.New(kind, fmt.Errorf("%s", failure.Message))
	e.BlockedBy = failure.BlockedBy
	if kind == epmerr.InvalidPackage {
		e.Suggestions = epmerr.NearestNames(target, idx.AllIdentities(), 3)
		if vs, err := idx.FindVersions(context.Background(), target); err == nil {
			e.AvailableVersions = vs
		}
	}
	return e
}
