// Package identity implements the package identity type shared by the
// registry, manifest, solver, and build planner: an (author, name) pair
// with its "author/name" display form.
package identity

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Identity is a package's (author, name) pair.
type Identity struct {
	Author string
	Name   string
}

// String renders the canonical "author/name" display form.
func (id Identity) String() string {
	return id.Author + "/" + id.Name
}

// Less orders identities by author then name, byte-for-byte - the order
// every sorted output in this system (manifest maps, solver results,
// package build order) must use.
func (id Identity) Less(other Identity) bool {
	if id.Author != other.Author {
		return id.Author < other.Author
	}
	return id.Name < other.Name
}

// Parse splits "author/name" into an Identity, validating that both
// components are non-empty and printable ASCII.
func Parse(s string) (Identity, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return Identity{}, errors.Errorf("invalid package name %q: must be \"author/name\"", s)
	}
	author, name := parts[0], parts[1]
	if err := validateComponent(author); err != nil {
		return Identity{}, errors.Wrapf(err, "invalid package name %q", s)
	}
	if err := validateComponent(name); err != nil {
		return Identity{}, errors.Wrapf(err, "invalid package name %q", s)
	}
	return Identity{Author: author, Name: name}, nil
}

func validateComponent(s string) error {
	if s == "" {
		return errors.New("empty component")
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return errors.Errorf("non-printable-ASCII component %q", s)
		}
	}
	return nil
}

// Identities is a sortable slice of Identity in (author, name) order.
type Identities []Identity

func (ids Identities) Len() int           { return len(ids) }
func (ids Identities) Swap(i, j int)      { ids[i], ids[j] = ids[j], ids[i] }
func (ids Identities) Less(i, j int) bool { return ids[i].Less(ids[j]) }
