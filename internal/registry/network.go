package registry

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sdboyer/constext"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/manifest"
	"github.com/elm-tooling/epm/internal/pkgcache"
	"github.com/elm-tooling/epm/internal/semver"
)

// Fetcher is the HTTP/VCS collaborator boundary for the network-backed
// registry: download and network access are strictly delegated to an
// external implementation. FindVersions answers a version listing for a
// package; Download populates the local package cache so a subsequent
// Dependencies call can read the package's own elm.json.
type Fetcher interface {
	FindVersions(ctx context.Context, id identity.Identity) ([]semver.Version, error)
	Download(ctx context.Context, id identity.Identity, v semver.Version) error
}

// Network is the network-backed registry: versions come from Fetcher,
// dependencies come from the package's own manifest once it is present in
// the local cache.
type Network struct {
	fetcher Fetcher
	cache   pkgcache.Reader
	rootCtx context.Context
}

// NewNetwork builds a network-backed registry. rootCtx is combined with
// the context passed to each call via constext.Cons, so either the
// process-lifetime context or the per-call one can cancel the operation.
func NewNetwork(fetcher Fetcher, cache pkgcache.Reader, rootCtx context.Context) *Network {
	return &Network{fetcher: fetcher, cache: cache, rootCtx: rootCtx}
}

func (n *Network) FindVersions(ctx context.Context, id identity.Identity) ([]semver.Version, error) {
	cctx, cancel := constext.Cons(ctx, n.rootCtx)
	defer cancel()

	vs, err := n.fetcher.FindVersions(cctx, id)
	if err != nil {
		return nil, &NetworkError{Package: id, Cause: err}
	}
	sortedVs := append(semver.Versions(nil), vs...)
	// Fetcher implementations aren't required to return versions sorted;
	// enforce newest-first here so callers never have to care.
	sort.Sort(sortedVs)
	return sortedVs, nil
}

func (n *Network) Dependencies(ctx context.Context, id identity.Identity, v semver.Version) (map[identity.Identity]semver.Range, error) {
	srcPath, err := n.cache.SourcePath(id, v)
	if err != nil {
		var notCached *pkgcache.NotCachedError
		if !errors.As(err, &notCached) {
			return nil, err
		}
		cctx, cancel := constext.Cons(ctx, n.rootCtx)
		defer func() { cancel() }()
		if derr := n.fetcher.Download(cctx, id, v); derr != nil {
			return nil, &NetworkError{Package: id, Cause: derr}
		}
		srcPath, err = n.cache.SourcePath(id, v)
		if err != nil {
			return nil, err
		}
	}

	m, err := manifest.ReadFile(filepath.Join(srcPath, "elm.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "reading cached manifest for %s@%s", id, v)
	}

	deps := make(map[identity.Identity]semver.Range, len(m.Deps))
	for depID, dc := range m.Deps {
		deps[depID] = dc.Range
	}
	return deps, nil
}
