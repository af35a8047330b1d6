package registry

import (
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/semver"
)

// jsonVersionEntry is one version's wire shape within the indexed
// registry file.
type jsonVersionEntry struct {
	Version string            `json:"version"`
	Status  string            `json:"status"`
	Deps    map[string]string `json:"deps"`
}

type jsonIndexFile struct {
	Packages map[string][]jsonVersionEntry `json:"packages"`
}

// LoadIndexed reads a registry snapshot from path and builds an Indexed
// registry from it. This is the concrete JSON shape epm reads at
// ELM_HOME/registry.json: parse into a raw struct, then convert each
// field into the cooked in-memory type, surfacing a wrapped error per
// malformed entry rather than failing the whole file silently.
func LoadIndexed(path string) (*Indexed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeIndexed(f)
}

// DecodeIndexed parses a v2 registry snapshot from r.
func DecodeIndexed(r io.Reader) (*Indexed, error) {
	var raw jsonIndexFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decoding registry index")
	}

	idx := NewIndexed()
	names := make([]string, 0, len(raw.Packages))
	for name := range raw.Packages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		id, err := identity.Parse(name)
		if err != nil {
			return nil, errors.Wrapf(err, "registry index package %q", name)
		}
		for _, ve := range raw.Packages[name] {
			v, err := semver.Parse(ve.Version)
			if err != nil {
				return nil, errors.Wrapf(err, "registry index %s version %q", name, ve.Version)
			}
			status, err := parseStatus(ve.Status)
			if err != nil {
				return nil, errors.Wrapf(err, "registry index %s@%s", name, ve.Version)
			}
			deps := make(map[identity.Identity]semver.Range, len(ve.Deps))
			for depName, constraint := range ve.Deps {
				depID, err := identity.Parse(depName)
				if err != nil {
					return nil, errors.Wrapf(err, "registry index %s@%s dependency %q", name, ve.Version, depName)
				}
				rng, err := semver.ParseConstraint(constraint)
				if err != nil {
					return nil, errors.Wrapf(err, "registry index %s@%s dependency %s", name, ve.Version, depName)
				}
				deps[depID] = rng
			}
			idx.Put(id, v, status, deps)
		}
	}
	return idx, nil
}

func parseStatus(s string) (Status, error) {
	switch s {
	case "valid":
		return Valid, nil
	case "invalid":
		return Invalid, nil
	default:
		return Valid, errors.Errorf("unknown status %q", s)
	}
}
