package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/elm-tooling/epm/internal/epmctx"
	"github.com/elm-tooling/epm/internal/epmerr"
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/manifest"
	"github.com/elm-tooling/epm/internal/semver"
	"github.com/elm-tooling/epm/internal/solver"
)

type upgradeCommand struct {
	major          bool
	majorIgnoreTest bool
}

func (cmd *upgradeCommand) Name() string      { return "upgrade" }
func (cmd *upgradeCommand) Args() string      { return "[PACKAGE]" }
func (cmd *upgradeCommand) ShortHelp() string { return "upgrade one or all dependencies" }

func (cmd *upgradeCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.major, "major", false, "allow PACKAGE to move across a major version boundary")
	fs.BoolVar(&cmd.majorIgnoreTest, "major-ignore-test", false, "leave test dependencies unconstrained during a --major upgrade")
}

// Run implements `upgrade [--major] [--major-ignore-test] [--yes]
// [PACKAGE]`: with no PACKAGE, every production and test dependency may
// move within its major version (strategy rung UPGRADABLE_WITHIN_MAJOR);
// with PACKAGE and --major, only that package's own transitive closure
// may cross a major boundary (CROSS_MAJOR_FOR_TARGET); with PACKAGE and
// no --major, every other package stays pinned exactly and only PACKAGE
// may move within its major version.
func (cmd *upgradeCommand) Run(ctx *epmctx.Context, args []string) error {
	if len(args) > 1 {
		return epmerr.New(epmerr.InvalidPackage, fmt.Errorf("upgrade takes at most one PACKAGE argument"))
	}
	if cmd.major && len(args) == 0 {
		return epmerr.New(epmerr.InvalidPackage, fmt.Errorf("--major requires a PACKAGE argument"))
	}

	m, err := loadManifest(ctx)
	if err != nil {
		return epmerr.Wrapf(epmerr.ParseError, err, "reading %s", ctx.ManifestPath())
	}
	idx, err := openRegistry(ctx)
	if err != nil {
		return epmerr.Wrapf(epmerr.FSError, err, "opening registry")
	}

	state := solver.StateFromManifest(m)
	driver := &solver.Driver{Provider: idx, Offline: ctx.Offline}
	ctxBg := context.Background()

	var selected map[identity.Identity]semver.Version
	var failure *solver.Failure
	var target identity.Identity

	switch {
	case len(args) == 0:
		selected, failure = driver.UpgradeMinor(ctxBg, state)

	case cmd.major:
		target, err = identity.Parse(args[0])
		if err != nil {
			return epmerr.Wrapf(epmerr.InvalidPackage, err, "parsing %q", args[0])
		}
		if cmd.majorIgnoreTest {
			roots, priority := solver.CrossMajorForTarget(state, target)
			for id := range state.TestDirect {
				delete(roots, id)
			}
			for id := range state.TestIndirect {
				delete(roots, id)
			}
			selected, failure = solver.Solve(ctxBg, idx, roots, ctx.Offline, priority...)
		} else {
			selected, failure = driver.UpgradeMajor(ctxBg, state, target)
		}

	default:
		target, err = identity.Parse(args[0])
		if err != nil {
			return epmerr.Wrapf(epmerr.InvalidPackage, err, "parsing %q", args[0])
		}
		roots := solver.ExactAll(state)
		if v, ok := currentVersion(state, target); ok {
			roots[target] = semver.UntilNextMajor(v)
		} else {
			return epmerr.New(epmerr.InvalidPackage, fmt.Errorf("%s is not a dependency of this project", target))
		}
		selected, failure = solver.Solve(ctxBg, idx, roots, ctx.Offline, target)
	}

	if failure != nil {
		return translateSolverFailure(idx, target, failure)
	}

	if !confirm(ctx, "Write elm.json?") {
		return errAborted
	}
	for id, v := range selected {
		m.ApplyChangePreservingLocation(id, v)
	}
	if err := manifest.WriteFile(m, ctx.ManifestPath()); err != nil {
		return epmerr.Wrapf(epmerr.FSError, err, "writing %s", ctx.ManifestPath())
	}
	ctx.Log.Printf("Upgraded %d package(s).", len(selected))
	return nil
}

func currentVersion(state solver.ProjectState, id identity.Identity) (semver.Version, bool) {
	for _, mp := range []map[identity.Identity]semver.Version{state.Direct, state.Indirect, state.TestDirect, state.TestIndirect} {
		if v, ok := mp[id]; ok {
			return v, true
		}
	}
	return semver.Version{}, false
}
