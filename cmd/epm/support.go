package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/elm-tooling/epm/internal/epmctx"
	"github.com/elm-tooling/epm/internal/manifest"
	"github.com/elm-tooling/epm/internal/pkgcache"
	"github.com/elm-tooling/epm/internal/registry"
)

// stdin is read by confirm; overridden by tests.
var stdin io.Reader = os.Stdin

// errAborted signals a user-declined confirmation prompt; Config.Run
// translates it into exit code 0 with "Aborted."
var errAborted = errors.New("aborted")

// loadManifest reads the project's elm.json.
func loadManifest(ctx *epmctx.Context) (*manifest.Manifest, error) {
	return manifest.ReadFile(ctx.ManifestPath())
}

// openCache builds the on-disk package cache reader rooted at ELM_HOME.
func openCache(ctx *epmctx.Context) pkgcache.Reader {
	return pkgcache.NewDisk(ctx.ElmHome)
}

// registryIndexPath is where epm expects its indexed registry snapshot,
// ELM_HOME/registry.json. The network-backed protocol is modeled purely
// as the registry.Fetcher interface - epm's CLI wires only the indexed
// file format, since a real HTTP Fetcher is an external collaborator
// outside this system's scope.
func registryIndexPath(ctx *epmctx.Context) string {
	return filepath.Join(ctx.ElmHome, "registry.json")
}

// openRegistry loads the indexed registry snapshot from ELM_HOME.
func openRegistry(ctx *epmctx.Context) (*registry.Indexed, error) {
	path := registryIndexPath(ctx)
	idx, err := registry.LoadIndexed(path)
	if err != nil {
		return nil, fmt.Errorf("loading registry index from %s: %w", path, err)
	}
	return idx, nil
}

// confirm prints prompt, reads a line from stdin unless ctx.Yes is set, and
// returns the epmctx.Confirm verdict: empty answer defaults to yes,
// --yes skips prompting entirely.
func confirm(ctx *epmctx.Context, prompt string) bool {
	if ctx.Yes {
		return true
	}
	ctx.Log.Printf("%s [Y/n] ", prompt)
	scanner := bufio.NewScanner(stdin)
	if !scanner.Scan() {
		return epmctx.Confirm(false, "")
	}
	return epmctx.Confirm(false, scanner.Text())
}
