// Package featureflag implements a small typed registry of named,
// env-gated boolean flags: each is read from an environment variable
// with "0"/"1" semantics, falling back to a compile-time default when
// the variable is absent or holds any other value.
package featureflag

import "os"

// Name identifies one feature flag.
type Name string

// Known flags. Each has a compile-time default used whenever its env var
// is absent or not exactly "0"/"1".
const (
	// ParallelModuleBatches names the switch for grouping modules into
	// parallel levels versus a single sequential batch. The build planner
	// does not read it: it always groups modules into levels.
	ParallelModuleBatches Name = "EPM_PARALLEL_BATCHES"
	// StrictOfflineCache forces every command to behave as if the
	// registry collaborator reported offline, useful for reproducing
	// NO_OFFLINE_SOLUTION without network access.
	StrictOfflineCache Name = "EPM_OFFLINE"
	// ExactAllFirst controls whether the ladder's rung 1 (EXACT_ALL) is
	// attempted before falling through to later rungs, or skipped
	// straight to rung 2 - provided for bisecting ladder regressions.
	ExactAllFirst Name = "EPM_LADDER_EXACT_ALL_FIRST"
)

var defaults = map[Name]bool{
	ParallelModuleBatches: true,
	StrictOfflineCache:    false,
	ExactAllFirst:         true,
}

// Enabled reports whether name is on: its env var if set to exactly "0" or
// "1", otherwise name's compile-time default.
func Enabled(name Name) bool {
	switch os.Getenv(string(name)) {
	case "1":
		return true
	case "0":
		return false
	default:
		return defaults[name]
	}
}

// WithOverride temporarily sets name's env var for the duration of fn,
// restoring whatever was there before on return - used by tests that need
// to exercise both branches of an Enabled check without polluting the
// process environment afterward.
func WithOverride(name Name, value bool, fn func()) {
	key := string(name)
	prev, hadPrev := os.LookupEnv(key)
	if value {
		os.Setenv(key, "1")
	} else {
		os.Setenv(key, "0")
	}
	defer func() {
		if hadPrev {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	}()
	fn()
}
