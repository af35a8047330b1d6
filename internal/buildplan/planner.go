package buildplan

import (
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/elm-tooling/epm/internal/fingerprint"
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/manifest"
	"github.com/elm-tooling/epm/internal/modgraph"
	"github.com/elm-tooling/epm/internal/pkgcache"
	"github.com/elm-tooling/epm/internal/semver"
)

// ArtifactFileName is the binary fingerprint file stored alongside a
// package's own source in the cache.
const ArtifactFileName = "artifacts.dat"

// BuildPackage is one package entry in the build plan.
type BuildPackage struct {
	Identity       identity.Identity
	Version        semver.Version
	SrcPath        string
	PackagePath    string
	Deps           []identity.Identity // ordered, project-set only
	ArtifactStatus fingerprint.Status
}

// Plan is the full composed build plan a `build`/`build check` invocation
// emits.
type Plan struct {
	Root            string
	SrcDirs         []string
	UseCached       bool
	Roots           []identity.Identity
	PackageBuildOrder []*BuildPackage
	ModuleGraph     *modgraph.Graph
	BuildOrder      []*modgraph.BuildModule
	ParallelBatches []modgraph.BuildBatch
	Problems        []modgraph.Problem
}

// Options configures Plan construction.
type Options struct {
	// Root names the project root for the plan's "root" field - typically
	// the application's working directory, or a package manifest's own
	// identity string.
	Root string
	// EntryFiles are the project-relative Elm entry points passed to
	// `build ENTRY...`.
	EntryFiles []string
	// UseCached, when true, skips the artifact freshness check; every
	// package's ArtifactStatus is then reported as Missing.
	UseCached bool
	// CoreIdentity is the package attributed to the hard-coded standard-
	// library fallback module set.
	CoreIdentity identity.Identity
	// Parser overrides the default module skeleton parser; nil uses
	// modgraph.RegexSkeletonParser{}.
	Parser modgraph.SkeletonParser
}

// Build composes m (the project's resolved manifest), cache (the package
// cache reader), and opts into a full Plan: package topological order with
// artifact-freshness checks, then module reachability/topo-sort/levels from
// opts.EntryFiles.
func Build(m *manifest.Manifest, cache pkgcache.Reader, opts Options) (*Plan, error) {
	parser := opts.Parser
	if parser == nil {
		parser = modgraph.RegexSkeletonParser{}
	}

	prodIDs := m.AllProductionIdentities()
	sort.Sort(identity.Identities(prodIDs))

	versions := make(map[identity.Identity]semver.Version, len(prodIDs))
	for _, id := range prodIDs {
		v, ok := m.ResolvedVersion(id)
		if !ok {
			return nil, errors.Errorf("package %s has no resolved version in the manifest", id)
		}
		versions[id] = v
	}

	order, filteredDeps, err := PackageOrder(prodIDs, versions, cache)
	if err != nil {
		return nil, err
	}

	pkgs := make([]*BuildPackage, 0, len(order))
	exposedBy := make(map[string]identity.Identity)
	for _, id := range order {
		v := versions[id]
		srcPath, err := cache.SourcePath(id, v)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving source path for %s", id)
		}

		status := fingerprint.Missing
		if !opts.UseCached {
			status, err = ComputeArtifactStatus(id, v, srcPath, versions, cache)
			if err != nil {
				return nil, err
			}
		}

		pkgs = append(pkgs, &BuildPackage{
			Identity:       id,
			Version:        v,
			SrcPath:        srcPath,
			PackagePath:    srcPath,
			Deps:           filteredDeps[id],
			ArtifactStatus: status,
		})

		mods, err := cache.ExposedModules(id, v)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving exposed modules for %s", id)
		}
		for _, mod := range mods {
			if _, ok := exposedBy[mod]; !ok {
				exposedBy[mod] = id
			}
		}
	}

	srcDirs := m.SourceDirs()
	graph, err := modgraph.Discover(opts.EntryFiles, srcDirs, parser, exposedBy, opts.CoreIdentity)
	if err != nil {
		return nil, err
	}
	buildOrder, err := modgraph.TopoSort(graph.Modules)
	if err != nil {
		return nil, err
	}
	batches := modgraph.ComputeLevels(buildOrder)

	return &Plan{
		Root:              opts.Root,
		SrcDirs:           srcDirs,
		UseCached:         opts.UseCached,
		Roots:             opts.rootIdentities(m),
		PackageBuildOrder: pkgs,
		ModuleGraph:       graph,
		BuildOrder:        buildOrder,
		ParallelBatches:   batches,
		Problems:          graph.Problems,
	}, nil
}

func (o Options) rootIdentities(m *manifest.Manifest) []identity.Identity {
	ids := m.AllProductionIdentities()
	sort.Sort(identity.Identities(ids))
	return ids
}

// ComputeArtifactStatus builds the expected fingerprint for id@v - its own
// declared dependencies mapped to the versions resolved in the current
// manifest - and checks it against id's on-disk artifacts.dat.
func ComputeArtifactStatus(id identity.Identity, v semver.Version, srcPath string, versions map[identity.Identity]semver.Version, cache pkgcache.Reader) (fingerprint.Status, error) {
	deps, err := cache.Dependencies(id, v)
	if err != nil {
		return fingerprint.Missing, errors.Wrapf(err, "reading dependencies of %s", id)
	}

	expected := make(fingerprint.Map, 0, len(deps))
	for _, dep := range deps {
		depVersion, ok := versions[dep]
		if !ok {
			// A declared dependency that isn't part of the resolved
			// project set can't contribute to the fingerprint; the
			// planner can't know what it was last built against.
			continue
		}
		expected = append(expected, fingerprint.Entry{Package: dep, Version: depVersion})
	}

	status, err := fingerprint.CheckFile(filepath.Join(srcPath, ArtifactFileName), expected)
	if err != nil {
		return fingerprint.Missing, err
	}
	return status, nil
}

// Stats summarizes PackageBuildOrder's artifact status counts, feeding
// the `packagesStale`/etc. summary counts.
type Stats struct {
	Present, Stale, Missing int
}

func (p *Plan) Stats() Stats {
	var s Stats
	for _, bp := range p.PackageBuildOrder {
		switch bp.ArtifactStatus {
		case fingerprint.Present:
			s.Present++
		case fingerprint.Stale:
			s.Stale++
		default:
			s.Missing++
		}
	}
	return s
}
