package main

import (
	"flag"
	"sort"

	"github.com/elm-tooling/epm/internal/buildplan"
	"github.com/elm-tooling/epm/internal/epmctx"
	"github.com/elm-tooling/epm/internal/epmerr"
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/manifest"
	"github.com/elm-tooling/epm/internal/semver"
)

type statusCommand struct {
	orphans bool
}

func (cmd *statusCommand) Name() string { return "status" }
func (cmd *statusCommand) Args() string { return "[--orphans]" }
func (cmd *statusCommand) ShortHelp() string {
	return "report each dependency's resolved version and artifact status"
}

func (cmd *statusCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.orphans, "orphans", false, "list indirect dependencies no longer reachable from any direct dependency")
}

// Run implements `status`/`status --orphans`: a read-only composition of
// the manifest and the package cache's fingerprint check, with no solve
// involved. It fails (exit code 1) only when the manifest or the package
// cache cannot be read; whatever the reported statuses, it otherwise
// exits 0 - this command is informational.
func (cmd *statusCommand) Run(ctx *epmctx.Context, args []string) error {
	m, err := loadManifest(ctx)
	if err != nil {
		return epmerr.Wrapf(epmerr.ParseError, err, "reading %s", ctx.ManifestPath())
	}
	cache := openCache(ctx)

	if cmd.orphans {
		orphans, err := m.FindOrphanedPackages(cache)
		if err != nil {
			return epmerr.Wrapf(epmerr.FSError, err, "computing orphaned packages")
		}
		if len(orphans) == 0 {
			ctx.Log.Printf("No orphaned packages.")
			return nil
		}
		for _, id := range orphans {
			ctx.Log.Printf("orphaned: %s", id)
		}
		return nil
	}

	ids := append(m.AllProductionIdentities(), m.AllTestIdentities()...)
	sort.Sort(identity.Identities(ids))

	versions := make(map[identity.Identity]semver.Version, len(ids))
	for _, id := range ids {
		if v, ok := m.ResolvedVersion(id); ok {
			versions[id] = v
		}
	}

	for _, id := range ids {
		v, ok := versions[id]
		if !ok {
			ctx.Log.Printf("%s\t(unresolved)", id)
			continue
		}

		directness := "indirect"
		switch m.Find(id) {
		case manifest.Direct, manifest.TestDirect, manifest.PkgDep:
			directness = "direct"
		}

		status := "missing"
		if srcPath, err := cache.SourcePath(id, v); err == nil {
			if st, err := buildplan.ComputeArtifactStatus(id, v, srcPath, versions, cache); err == nil {
				status = st.String()
			}
		}

		ctx.Log.Printf("%s\t%s\t%s\t%s", id, v, directness, status)
	}
	return nil
}
