// Package epmerr defines the failure-category vocabulary every command
// surface reports through: a single Kind enum plus an Error type carrying
// a causal chain and kind-specific structured payload used to render the
// "actionable hint" text (nearest-name suggestions, available versions,
// blocked-by lists).
package epmerr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/semver"
)

// Kind is one of the six failure categories a command can report.
type Kind int

const (
	InvalidPackage Kind = iota
	NoSolution
	NoOfflineSolution
	NetworkError
	ParseError
	FSError
)

func (k Kind) String() string {
	switch k {
	case InvalidPackage:
		return "INVALID_PACKAGE"
	case NoSolution:
		return "NO_SOLUTION"
	case NoOfflineSolution:
		return "NO_OFFLINE_SOLUTION"
	case NetworkError:
		return "NETWORK_ERROR"
	case ParseError:
		return "PARSE_ERROR"
	default:
		return "FS_ERROR"
	}
}

// Error is the error type every command-level failure is wrapped into
// before it crosses the CLI boundary. Anything that would mutate the
// manifest is deferred until the solver plan and user confirmation have
// succeeded, so a failure here never leaves a partial write behind.
type Error struct {
	Kind Kind
	// Suggestions holds nearest-name candidates for an InvalidPackage
	// failure, nearest-first.
	Suggestions []string
	// AvailableVersions holds the known versions of the package in
	// question, newest-first, when relevant to the hint.
	AvailableVersions []semver.Version
	// BlockedBy holds the packages whose existing constraints caused a
	// NoSolution failure, when derivable.
	BlockedBy []identity.Identity

	cause error
}

// New wraps cause under kind with no structured hint payload.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

// Wrapf is New, formatting cause's message with pkg/errors.Wrapf first.
func Wrapf(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, cause: errors.Wrapf(cause, format, args...)}
}

func (e *Error) Error() string {
	return e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Hint renders the actionable-hint text shown alongside the base
// message: nearest-name suggestions, available versions, or a blocked-by
// list, whichever the Kind carries.
func (e *Error) Hint() string {
	var b strings.Builder
	switch e.Kind {
	case InvalidPackage:
		if len(e.Suggestions) > 0 {
			fmt.Fprintf(&b, "did you mean: %s?", strings.Join(e.Suggestions, ", "))
		}
		if len(e.AvailableVersions) > 0 {
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			strs := make([]string, len(e.AvailableVersions))
			for i, v := range e.AvailableVersions {
				strs[i] = v.String()
			}
			fmt.Fprintf(&b, "available versions: %s", strings.Join(strs, ", "))
		}
	case NoSolution:
		if len(e.BlockedBy) > 0 {
			strs := make([]string, len(e.BlockedBy))
			for i, id := range e.BlockedBy {
				strs[i] = id.String()
			}
			fmt.Fprintf(&b, "blocked by: %s", strings.Join(strs, ", "))
		}
	}
	return b.String()
}

// NearestNames ranks known, the registry's full set of package identities,
// by Levenshtein distance to want's display string and returns up to
// limit of the closest matches.
func NearestNames(want identity.Identity, known identity.Identities, limit int) []string {
	type scored struct {
		name string
		dist int
	}
	w := want.String()
	cands := make([]scored, 0, len(known))
	for _, id := range known {
		n := id.String()
		cands = append(cands, scored{name: n, dist: levenshtein(w, n)})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].name < cands[j].name
	})
	if limit > len(cands) {
		limit = len(cands)
	}
	out := make([]string, 0, limit)
	for _, c := range cands[:limit] {
		out = append(out, c.name)
	}
	return out
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
