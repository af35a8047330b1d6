package buildplan

// JSON output shapes for `build --json`. Kept as a distinct rendering
// layer from Plan so the in-memory graph types stay free of JSON struct
// tags.

type foreignModuleJSON struct {
	Name    string `json:"name"`
	Package string `json:"package"`
}

type packageJSON struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Path           string   `json:"path"`
	Deps           []string `json:"deps"`
	ArtifactStatus string   `json:"artifactStatus"`
}

type moduleJSON struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Deps    []string `json:"deps"`
	HasMain bool     `json:"hasMain"`
	Cached  bool     `json:"cached"`
}

type batchJSON struct {
	Level   int          `json:"level"`
	Count   int          `json:"count"`
	Modules []moduleJSON `json:"modules"`
}

type problemJSON struct {
	Module  string `json:"module,omitempty"`
	Message string `json:"message"`
}

type summaryJSON struct {
	Packages        int `json:"packages"`
	PackagesPresent int `json:"packagesPresent"`
	PackagesStale   int `json:"packagesStale"`
	PackagesMissing int `json:"packagesMissing"`
	Modules         int `json:"modules"`
	Problems        int `json:"problems"`
}

// Document is the top-level build-plan JSON object.
type Document struct {
	Root            string              `json:"root"`
	SrcDirs         []string            `json:"srcDirs"`
	UseCached       bool                `json:"useCached"`
	Roots           []string            `json:"roots"`
	ForeignModules  []foreignModuleJSON `json:"foreignModules"`
	PackageBuildOrder []packageJSON     `json:"packageBuildOrder"`
	BuildOrder      []moduleJSON        `json:"buildOrder"`
	ParallelBatches []batchJSON         `json:"parallelBatches"`
	Problems        []problemJSON       `json:"problems"`
	Summary         summaryJSON         `json:"summary"`
}

// ToDocument renders p into its JSON-serializable shape.
func (p *Plan) ToDocument() Document {
	doc := Document{
		Root:      p.Root,
		SrcDirs:   p.SrcDirs,
		UseCached: p.UseCached,
	}

	for _, id := range p.Roots {
		doc.Roots = append(doc.Roots, id.String())
	}

	for _, f := range p.ModuleGraph.ForeignList() {
		doc.ForeignModules = append(doc.ForeignModules, foreignModuleJSON{
			Name:    f.ModuleName,
			Package: f.Package.String(),
		})
	}

	for _, bp := range p.PackageBuildOrder {
		depNames := make([]string, 0, len(bp.Deps))
		for _, d := range bp.Deps {
			depNames = append(depNames, d.String())
		}
		doc.PackageBuildOrder = append(doc.PackageBuildOrder, packageJSON{
			Name:           bp.Identity.String(),
			Version:        bp.Version.String(),
			Path:           bp.PackagePath,
			Deps:           depNames,
			ArtifactStatus: bp.ArtifactStatus.String(),
		})
	}

	for _, bm := range p.BuildOrder {
		doc.BuildOrder = append(doc.BuildOrder, moduleJSON{
			Name:    bm.ModuleName,
			Path:    bm.FilePath,
			Deps:    append([]string(nil), bm.Deps...),
			HasMain: bm.HasMain,
			Cached:  p.UseCached,
		})
	}

	for _, batch := range p.ParallelBatches {
		bj := batchJSON{Level: batch.Level, Count: len(batch.Members)}
		for _, bm := range batch.Members {
			bj.Modules = append(bj.Modules, moduleJSON{
				Name:    bm.ModuleName,
				Path:    bm.FilePath,
				Deps:    append([]string(nil), bm.Deps...),
				HasMain: bm.HasMain,
				Cached:  p.UseCached,
			})
		}
		doc.ParallelBatches = append(doc.ParallelBatches, bj)
	}

	for _, prob := range p.Problems {
		doc.Problems = append(doc.Problems, problemJSON{Module: prob.Module, Message: prob.Message})
	}

	stats := p.Stats()
	doc.Summary = summaryJSON{
		Packages:        len(p.PackageBuildOrder),
		PackagesPresent: stats.Present,
		PackagesStale:   stats.Stale,
		PackagesMissing: stats.Missing,
		Modules:         len(p.BuildOrder),
		Problems:        len(p.Problems),
	}
	return doc
}
