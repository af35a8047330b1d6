// Package modgraph discovers the local-module reachability graph from a
// project's entry files and produces the topologically-ordered,
// level-batched build order: walking source files, classifying local vs
// external imports, and reducing the result to a safe build/reachability
// order.
package modgraph

import (
	"bufio"
	"os"
	"regexp"

	"github.com/pkg/errors"
)

// Skeleton is the minimal information modgraph needs out of a source
// file: its module name, the modules it imports, and whether it declares
// a `main :` annotation.
type Skeleton struct {
	ModuleName string
	Imports    []string
	HasMain    bool
}

// SkeletonParser is the collaborator boundary around actually parsing Elm
// source; full parsing is out of scope here, only "module X exposing
// (...)" and "import Y" lines, plus a top-level "main :" annotation, need
// to be recognized.
type SkeletonParser interface {
	Parse(path string) (Skeleton, error)
}

var (
	moduleLineRe = regexp.MustCompile(`^\s*(?:port\s+|effect\s+)?module\s+([A-Za-z0-9_.]+)\s+exposing`)
	importLineRe = regexp.MustCompile(`^\s*import\s+([A-Za-z0-9_.]+)`)
	mainDeclRe   = regexp.MustCompile(`^main\s*:`)
)

// RegexSkeletonParser is the default SkeletonParser: a line-oriented scan
// that never fully parses the Elm grammar, treating imports as a flat
// scan over source rather than a full type-checked AST.
type RegexSkeletonParser struct{}

func (RegexSkeletonParser) Parse(path string) (Skeleton, error) {
	f, err := os.Open(path)
	if err != nil {
		return Skeleton{}, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var sk Skeleton
	seen := make(map[string]bool)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if sk.ModuleName == "" {
			if m := moduleLineRe.FindStringSubmatch(line); m != nil {
				sk.ModuleName = m[1]
				continue
			}
		}
		if m := importLineRe.FindStringSubmatch(line); m != nil {
			if !seen[m[1]] {
				seen[m[1]] = true
				sk.Imports = append(sk.Imports, m[1])
			}
			continue
		}
		if mainDeclRe.MatchString(line) {
			sk.HasMain = true
		}
	}
	if err := sc.Err(); err != nil {
		return Skeleton{}, errors.Wrapf(err, "scanning %s", path)
	}
	if sk.ModuleName == "" {
		return Skeleton{}, errors.Errorf("%s: no module declaration found", path)
	}
	return sk, nil
}
