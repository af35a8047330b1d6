package main

import (
	"flag"
	"fmt"

	"github.com/elm-tooling/epm/internal/epmctx"
	"github.com/elm-tooling/epm/internal/epmerr"
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/manifest"
)

type removeCommand struct{}

func (cmd *removeCommand) Name() string      { return "remove" }
func (cmd *removeCommand) Args() string      { return "PACKAGE" }
func (cmd *removeCommand) ShortHelp() string { return "remove a dependency from the project" }
func (cmd *removeCommand) Register(fs *flag.FlagSet) {}

// Run implements `remove [--yes] PACKAGE`: removes id from every map it
// occupies - all four application maps, or deps/test-deps for a package
// manifest - then reports any indirect dependency this leaves
// unreachable via manifest.FindOrphanedPackages.
func (cmd *removeCommand) Run(ctx *epmctx.Context, args []string) error {
	if len(args) != 1 {
		return epmerr.New(epmerr.InvalidPackage, fmt.Errorf("remove requires exactly one PACKAGE argument"))
	}
	id, err := identity.Parse(args[0])
	if err != nil {
		return epmerr.Wrapf(epmerr.InvalidPackage, err, "parsing %q", args[0])
	}

	m, err := loadManifest(ctx)
	if err != nil {
		return epmerr.Wrapf(epmerr.ParseError, err, "reading %s", ctx.ManifestPath())
	}

	if m.Find(id) == manifest.None {
		return epmerr.New(epmerr.InvalidPackage, fmt.Errorf("%s is not a dependency of this project", id))
	}

	if !confirm(ctx, fmt.Sprintf("Remove %s?", id)) {
		return errAborted
	}
	m.Remove(id)

	orphans, err := m.FindOrphanedPackages(openCache(ctx))
	if err != nil {
		return epmerr.Wrapf(epmerr.FSError, err, "computing orphaned packages")
	}
	for _, o := range orphans {
		ctx.Log.Vlogf("%s is now orphaned", o)
	}

	if err := manifest.WriteFile(m, ctx.ManifestPath()); err != nil {
		return epmerr.Wrapf(epmerr.FSError, err, "writing %s", ctx.ManifestPath())
	}
	ctx.Log.Printf("Removed %s.", id)
	return nil
}
