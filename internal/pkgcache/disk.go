package pkgcache

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/manifest"
	"github.com/elm-tooling/epm/internal/semver"
)

// Disk is the real, on-disk Reader implementation: it reads a package
// version's own elm.json out of
// ELM_HOME/packages/<author>/<name>/<version>/. Downloading a missing
// version is out of scope here, delegated instead to the HTTP
// collaborator, registry.Fetcher; Disk only ever reads what is already
// present.
type Disk struct {
	Root string // ELM_HOME
}

func NewDisk(root string) *Disk {
	return &Disk{Root: root}
}

func (d *Disk) versionDir(id identity.Identity, v semver.Version) string {
	return filepath.Join(d.Root, "packages", id.Author, id.Name, v.String())
}

func (d *Disk) SourcePath(id identity.Identity, v semver.Version) (string, error) {
	dir := d.versionDir(id, v)
	if _, err := manifestStat(dir); err != nil {
		return "", &NotCachedError{ID: id, Version: v}
	}
	return dir, nil
}

func (d *Disk) readManifest(id identity.Identity, v semver.Version) (*manifest.Manifest, error) {
	dir := d.versionDir(id, v)
	m, err := manifest.ReadFile(filepath.Join(dir, "elm.json"))
	if err != nil {
		if isNotExist(err) {
			return nil, &NotCachedError{ID: id, Version: v}
		}
		return nil, errors.Wrapf(err, "reading cached manifest for %s@%s", id, v)
	}
	return m, nil
}

func (d *Disk) Dependencies(id identity.Identity, v semver.Version) ([]identity.Identity, error) {
	m, err := d.readManifest(id, v)
	if err != nil {
		return nil, err
	}
	deps := make([]identity.Identity, 0, len(m.Deps))
	for depID := range m.Deps {
		deps = append(deps, depID)
	}
	return deps, nil
}

func (d *Disk) ExposedModules(id identity.Identity, v semver.Version) ([]string, error) {
	m, err := d.readManifest(id, v)
	if err != nil {
		return nil, err
	}
	return m.ExposedModules, nil
}
