package modgraph

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/elm-tooling/epm/internal/fsutil"
	"github.com/elm-tooling/epm/internal/identity"
)

// BuildModule is a single local module in the discovered graph. Level is
// -1 until ComputeLevels assigns it.
type BuildModule struct {
	ModuleName string
	FilePath   string
	Deps       []string // local module names only
	HasMain    bool
	Level      int
}

// BuildBatch groups modules that can build in parallel: every member's
// dependencies are at a strictly lower level.
type BuildBatch struct {
	Level   int
	Members []*BuildModule
}

// ForeignImport records a module exposed by a project package rather than
// found under a source directory.
type ForeignImport struct {
	ModuleName string
	Package    identity.Identity
}

// Problem is a non-fatal issue surfaced in build-plan output.
type Problem struct {
	Module  string
	Message string
}

// coreModules is the hard-coded standard-library fallback set attributed
// to the core package when no project package claims them.
var coreModules = map[string]bool{
	"Basics":       true,
	"Char":         true,
	"Debug":        true,
	"Maybe":        true,
	"Platform":     true,
	"Platform.Cmd": true,
	"Platform.Sub": true,
	"Tuple":        true,
}

// implicitImports is unconditionally added to the foreign-module set even
// when no source file references it.
var implicitImports = []string{"Basics", "List", "Maybe", "Result", "String", "Char", "Tuple", "Debug", "Platform", "Platform.Cmd", "Platform.Sub"}

// Graph is the result of a reachability crawl: every local module reached
// from the entry files, plus the foreign modules it touched along the way.
type Graph struct {
	Modules  map[string]*BuildModule
	Foreign  map[string]ForeignImport
	Problems []Problem
}

// Discover runs a breadth-first crawl starting from entryFiles: parse
// each file's skeleton, resolve every import against srcDirs, and
// classify it local (enqueue further) or foreign (attribute to a package
// via coreIdentity / exposedBy). exposedBy maps an exposed module name to
// the package identity that exposes it, built from every project
// package's manifest.
func Discover(entryFiles []string, srcDirs []string, parser SkeletonParser, exposedBy map[string]identity.Identity, coreIdentity identity.Identity) (*Graph, error) {
	g := &Graph{
		Modules: make(map[string]*BuildModule),
		Foreign: make(map[string]ForeignImport),
	}

	for _, name := range implicitImports {
		g.classifyForeign(name, exposedBy, coreIdentity)
	}

	queue := make([]string, 0, len(entryFiles))
	queued := make(map[string]bool)

	enqueueFile := func(path string) error {
		sk, err := parser.Parse(path)
		if err != nil {
			return err
		}
		if _, exists := g.Modules[sk.ModuleName]; exists {
			return nil
		}
		bm := &BuildModule{ModuleName: sk.ModuleName, FilePath: path, HasMain: sk.HasMain, Level: -1}
		g.Modules[sk.ModuleName] = bm
		for _, imp := range sk.Imports {
			if path, ok := fsutil.ResolveModulePath(imp, srcDirs); ok {
				bm.Deps = append(bm.Deps, imp)
				if !queued[imp] {
					queued[imp] = true
					queue = append(queue, path)
				}
			} else {
				g.classifyForeign(imp, exposedBy, coreIdentity)
			}
		}
		sort.Strings(bm.Deps)
		return nil
	}

	for _, entry := range entryFiles {
		if err := enqueueFile(entry); err != nil {
			return nil, errors.Wrapf(err, "parsing entry file %s", entry)
		}
	}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if err := enqueueFile(path); err != nil {
			g.Problems = append(g.Problems, Problem{Message: err.Error()})
		}
	}

	return g, nil
}

func (g *Graph) classifyForeign(moduleName string, exposedBy map[string]identity.Identity, coreIdentity identity.Identity) {
	if _, ok := g.Foreign[moduleName]; ok {
		return
	}
	if owner, ok := exposedBy[moduleName]; ok {
		g.Foreign[moduleName] = ForeignImport{ModuleName: moduleName, Package: owner}
		return
	}
	if coreModules[moduleName] {
		g.Foreign[moduleName] = ForeignImport{ModuleName: moduleName, Package: coreIdentity}
		return
	}
	g.Problems = append(g.Problems, Problem{Module: moduleName, Message: "module not exposed by any project dependency"})
}

// ForeignList returns the foreign imports sorted by module name, the
// canonical `foreignModules` output ordering.
func (g *Graph) ForeignList() []ForeignImport {
	out := make([]ForeignImport, 0, len(g.Foreign))
	for _, f := range g.Foreign {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleName < out[j].ModuleName })
	return out
}
