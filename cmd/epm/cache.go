package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"

	"github.com/elm-tooling/epm/internal/epmctx"
	"github.com/elm-tooling/epm/internal/epmerr"
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/pkgcache"
	"github.com/elm-tooling/epm/internal/registry"
	"github.com/elm-tooling/epm/internal/semver"
)

type cacheCommand struct{}

func (cmd *cacheCommand) Name() string      { return "cache" }
func (cmd *cacheCommand) Args() string      { return "missing" }
func (cmd *cacheCommand) ShortHelp() string { return "report or fetch cache-missing dependencies" }
func (cmd *cacheCommand) Register(fs *flag.FlagSet) {}

// Run implements `cache missing [--yes]`: lists every manifest dependency
// absent from ELM_HOME's package cache and, once confirmed, downloads
// each through the registry.Fetcher collaborator.
func (cmd *cacheCommand) Run(ctx *epmctx.Context, args []string) error {
	if len(args) != 1 || args[0] != "missing" {
		return epmerr.New(epmerr.InvalidPackage, fmt.Errorf("usage: epm cache missing"))
	}

	m, err := loadManifest(ctx)
	if err != nil {
		return epmerr.Wrapf(epmerr.ParseError, err, "reading %s", ctx.ManifestPath())
	}

	cache := openCache(ctx)
	ids := append(m.AllProductionIdentities(), m.AllTestIdentities()...)
	sort.Sort(identity.Identities(ids))

	type missingDep struct {
		id identity.Identity
		v  semver.Version
	}
	var missing []missingDep
	for _, id := range ids {
		v, ok := m.ResolvedVersion(id)
		if !ok {
			continue
		}
		if _, err := cache.SourcePath(id, v); err != nil {
			var notCached *pkgcache.NotCachedError
			if errors.As(err, &notCached) {
				missing = append(missing, missingDep{id: id, v: v})
			}
		}
	}

	if len(missing) == 0 {
		ctx.Log.Printf("Nothing missing from the package cache.")
		return nil
	}
	for _, md := range missing {
		ctx.Log.Printf("missing: %s@%s", md.id, md.v)
	}

	if !confirm(ctx, fmt.Sprintf("Download %d package(s)?", len(missing))) {
		return errAborted
	}

	fetcher := unconfiguredFetcher{}
	for _, md := range missing {
		if err := fetcher.Download(context.Background(), md.id, md.v); err != nil {
			return epmerr.Wrapf(epmerr.NetworkError, err, "downloading %s@%s", md.id, md.v)
		}
	}
	return nil
}

// unconfiguredFetcher is the default registry.Fetcher: downloading is
// strictly delegated to an external HTTP collaborator, modeled here as
// an interface only. epm ships no concrete network implementation; a
// deployment wires its own Fetcher in place of this one.
type unconfiguredFetcher struct{}

func (unconfiguredFetcher) FindVersions(context.Context, identity.Identity) ([]semver.Version, error) {
	return nil, fmt.Errorf("no network collaborator configured")
}

func (unconfiguredFetcher) Download(context.Context, identity.Identity, semver.Version) error {
	return fmt.Errorf("no network collaborator configured")
}

var _ registry.Fetcher = unconfiguredFetcher{}
