// Package epmctx carries the per-invocation supporting context every
// subcommand needs: where the package cache root lives, the logger to
// write through, and the working directory the manifest was loaded from.
//
// The cache root is resolved once, from ELM_HOME if set or else a
// platform cache-dir default, and threaded through explicitly rather than
// kept as package-global state.
package epmctx

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/elm-tooling/epm/internal/epmlog"
)

// Context is the supporting state every epm subcommand is invoked with.
type Context struct {
	// ElmHome is the resolved cache root, holding
	// packages/<author>/<name>/<version>/ beneath it.
	ElmHome string
	// WorkingDir is the directory the command was invoked from, and the
	// directory elm.json is read from/written to.
	WorkingDir string
	// Log is the logger every subcommand writes through; never a package
	// global.
	Log *epmlog.Logger
	// Yes mirrors the CLI's --yes flag: confirmation prompts default to
	// "yes" on empty input, and --yes skips prompting entirely.
	Yes bool
	// Offline forces every registry operation to behave as though the
	// network is unavailable.
	Offline bool
}

// New resolves ELM_HOME (falling back to a platform cache-dir default when
// unset) and the current working directory, and constructs a Context ready
// to be threaded through a subcommand.
func New(log *epmlog.Logger, yes, offline bool) (*Context, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}

	home := os.Getenv("ELM_HOME")
	if home == "" {
		ucd, err := os.UserCacheDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolving default ELM_HOME")
		}
		home = filepath.Join(ucd, "elm")
	}

	return &Context{
		ElmHome:    home,
		WorkingDir: wd,
		Log:        log,
		Yes:        yes,
		Offline:    offline,
	}, nil
}

// PackageCacheDir returns the on-disk root a package version's files live
// under.
func (c *Context) PackageCacheDir(author, name, version string) string {
	return filepath.Join(c.ElmHome, "packages", author, name, version)
}

// ManifestPath returns the path to this project's elm.json.
func (c *Context) ManifestPath() string {
	return filepath.Join(c.WorkingDir, "elm.json")
}

// Confirm reports whether a confirmation prompt should proceed: if yes is
// set, no prompt is shown and the action proceeds; otherwise the caller is
// expected to have already read the user's answer into answer, and an
// empty answer defaults to yes.
func Confirm(yes bool, answer string) bool {
	if yes {
		return true
	}
	switch answer {
	case "", "y", "Y", "yes", "Yes":
		return true
	default:
		return false
	}
}
