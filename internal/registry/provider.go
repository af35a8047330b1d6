// Package registry implements the two wire-protocol variants a caller may
// need to accept: a network-backed registry (version lookup over HTTP,
// dependency lookup from a locally cached manifest) and an in-memory
// indexed registry (everything, including per-version valid/invalid
// status, already resident). Both are exposed behind the same Provider
// interface so the solver never needs to know which it's talking to.
package registry

import (
	"context"

	"github.com/pkg/errors"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/semver"
)

// Status is a version's participation eligibility, as carried by the
// indexed registry format: only Valid versions participate in solving.
type Status int

const (
	Valid Status = iota
	Invalid
)

func (s Status) String() string {
	if s == Valid {
		return "valid"
	}
	return "invalid"
}

// Provider is the registry boundary the solver depends on: version
// discovery and dependency lookup for a single package version, both
// newest-first and valid-only.
type Provider interface {
	// FindVersions returns every VALID version of id, newest-first.
	FindVersions(ctx context.Context, id identity.Identity) ([]semver.Version, error)
	// Dependencies returns the production dependency constraints declared
	// by id's manifest at version v.
	Dependencies(ctx context.Context, id identity.Identity, v semver.Version) (map[identity.Identity]semver.Range, error)
}

// NotFoundError reports that a package or version has no entry in the
// registry.
type NotFoundError struct {
	Package identity.Identity
	Version *semver.Version
}

func (e *NotFoundError) Error() string {
	if e.Version != nil {
		return errors.Errorf("%s: version %s not found", e.Package, e.Version).Error()
	}
	return errors.Errorf("%s: not found in registry", e.Package).Error()
}

// NetworkError wraps a failure from the HTTP collaborator boundary.
type NetworkError struct {
	Package identity.Identity
	Cause   error
}

func (e *NetworkError) Error() string {
	return errors.Wrapf(e.Cause, "fetching %s", e.Package).Error()
}

func (e *NetworkError) Unwrap() error { return e.Cause }
