package manifest

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/semver"
)

// Parser limits. These are compile-time defaults; nothing in this system
// currently overrides them at runtime, but they are plain vars (not
// consts) so a future config layer can.
var (
	MaxDependencyEntries = 10000
	MaxVersionStringLen  = 256
	MaxFileBytes         int64 = 10 << 20 // 10 MiB
)

type rawManifest struct {
	Type            string          `json:"type"`
	ElmVersion      string          `json:"elm-version,omitempty"`
	Name            string          `json:"name,omitempty"`
	Version         string          `json:"version,omitempty"`
	License         string          `json:"license,omitempty"`
	SourceDirs      []string        `json:"source-directories,omitempty"`
	ExposedModules  json.RawMessage `json:"exposed-modules,omitempty"`
	Dependencies    json.RawMessage `json:"dependencies"`
	TestDependencies json.RawMessage `json:"test-dependencies"`
}

type appDeps struct {
	Direct   map[string]string `json:"direct"`
	Indirect map[string]string `json:"indirect"`
}

// Read parses an elm.json document from r, enforcing the parser limits
// above. A wrapped error is returned for any structural violation; a
// manifest parse error is fatal to the invoking command.
func Read(r io.Reader) (*Manifest, error) {
	limited := io.LimitReader(r, MaxFileBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.Wrap(err, "reading elm.json")
	}
	if int64(len(raw)) > MaxFileBytes {
		return nil, errors.Errorf("elm.json exceeds maximum size of %d bytes", MaxFileBytes)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, errors.Wrap(err, "parsing elm.json")
	}

	var rm rawManifest
	if err := json.Unmarshal(raw, &rm); err != nil {
		return nil, errors.Wrap(err, "parsing elm.json")
	}

	m := &Manifest{ElmVersion: rm.ElmVersion, sourceDirs: rm.SourceDirs}

	known := map[string]bool{
		"type": true, "elm-version": true, "name": true, "version": true,
		"license": true, "exposed-modules": true,
		"dependencies": true, "test-dependencies": true,
	}
	m.extraTopLevel = make(map[string][]byte)
	for k, v := range top {
		if !known[k] {
			m.extraTopLevel[k] = v
		}
	}

	switch rm.Type {
	case "application":
		m.Kind = Application
		var deps, testDeps appDeps
		if len(rm.Dependencies) > 0 {
			if err := json.Unmarshal(rm.Dependencies, &deps); err != nil {
				return nil, errors.Wrap(err, "parsing elm.json dependencies")
			}
		}
		if len(rm.TestDependencies) > 0 {
			if err := json.Unmarshal(rm.TestDependencies, &testDeps); err != nil {
				return nil, errors.Wrap(err, "parsing elm.json test-dependencies")
			}
		}
		var err error
		if m.Direct, err = pinnedMap(deps.Direct); err != nil {
			return nil, err
		}
		if m.Indirect, err = pinnedMap(deps.Indirect); err != nil {
			return nil, err
		}
		if m.TestDirect, err = pinnedMap(testDeps.Direct); err != nil {
			return nil, err
		}
		if m.TestIndirect, err = pinnedMap(testDeps.Indirect); err != nil {
			return nil, err
		}

	case "package":
		m.Kind = Package
		m.Name = rm.Name
		m.License = rm.License
		if rm.Version != "" {
			v, err := semver.Parse(rm.Version)
			if err != nil {
				return nil, errors.Wrap(err, "parsing elm.json version")
			}
			m.Version = v
		}
		m.ExposedModules = parseExposedModules(rm.ExposedModules)

		var deps, testDeps map[string]string
		if len(rm.Dependencies) > 0 {
			if err := json.Unmarshal(rm.Dependencies, &deps); err != nil {
				return nil, errors.Wrap(err, "parsing elm.json dependencies")
			}
		}
		if len(rm.TestDependencies) > 0 {
			if err := json.Unmarshal(rm.TestDependencies, &testDeps); err != nil {
				return nil, errors.Wrap(err, "parsing elm.json test-dependencies")
			}
		}
		var err error
		if m.Deps, err = constraintMap(deps); err != nil {
			return nil, err
		}
		if m.TestDeps, err = constraintMap(testDeps); err != nil {
			return nil, err
		}

	default:
		return nil, errors.Errorf(`elm.json "type" must be "application" or "package", got %q`, rm.Type)
	}

	return m, nil
}

func pinnedMap(in map[string]string) (map[identity.Identity]semver.Version, error) {
	if len(in) > MaxDependencyEntries {
		return nil, errors.Errorf("dependency map exceeds maximum of %d entries", MaxDependencyEntries)
	}
	out := make(map[identity.Identity]semver.Version, len(in))
	for name, vs := range in {
		if len(vs) > MaxVersionStringLen {
			return nil, errors.Errorf("version string for %s exceeds maximum length", name)
		}
		id, err := identity.Parse(name)
		if err != nil {
			return nil, err
		}
		v, err := semver.Parse(vs)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing version for %s", name)
		}
		out[id] = v
	}
	return out, nil
}

func constraintMap(in map[string]string) (map[identity.Identity]DepConstraint, error) {
	if len(in) > MaxDependencyEntries {
		return nil, errors.Errorf("dependency map exceeds maximum of %d entries", MaxDependencyEntries)
	}
	out := make(map[identity.Identity]DepConstraint, len(in))
	for name, raw := range in {
		if len(raw) > MaxVersionStringLen {
			return nil, errors.Errorf("constraint string for %s exceeds maximum length", name)
		}
		id, err := identity.Parse(name)
		if err != nil {
			return nil, err
		}
		r, err := semver.ParseConstraint(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing constraint for %s", name)
		}
		out[id] = DepConstraint{Range: r, Raw: raw}
	}
	return out, nil
}

// parseExposedModules accepts either an array of module names or an
// object mapping category -> array, flattening both into a single sorted
// list.
func parseExposedModules(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var flat []string
	if err := json.Unmarshal(raw, &flat); err == nil {
		sort.Strings(flat)
		return flat
	}
	var grouped map[string][]string
	if err := json.Unmarshal(raw, &grouped); err == nil {
		var out []string
		for _, mods := range grouped {
			out = append(out, mods...)
		}
		sort.Strings(out)
		return out
	}
	return nil
}

// Write renders m canonically: 4-space indent, empty dependency objects as
// "{}" on one line, sorted (author, name) maps, a trailing newline, and
// every top-level key it does not model (plus "source-directories")
// preserved verbatim from the original file. "type", "elm-version" and a
// package's "name", "version", "license" and "exposed-modules" are
// re-rendered from the parsed fields, "exposed-modules" as one sorted flat
// array. It does not write to disk - see internal/fsutil.AtomicWrite for
// the atomic rename sequence.
func Write(m *Manifest) ([]byte, error) {
	top := make(map[string]json.RawMessage)
	for k, v := range m.extraTopLevel {
		top[k] = v
	}

	top["type"] = mustJSON(m.Kind.String())
	if m.ElmVersion != "" {
		top["elm-version"] = mustJSON(m.ElmVersion)
	}

	switch m.Kind {
	case Application:
		deps, err := renderPinned(m.Direct, m.Indirect)
		if err != nil {
			return nil, err
		}
		testDeps, err := renderPinned(m.TestDirect, m.TestIndirect)
		if err != nil {
			return nil, err
		}
		top["dependencies"] = deps
		top["test-dependencies"] = testDeps

	case Package:
		top["name"] = mustJSON(m.Name)
		top["version"] = mustJSON(m.Version.String())
		if m.License != "" {
			top["license"] = mustJSON(m.License)
		}
		if m.ExposedModules != nil {
			sorted := append([]string(nil), m.ExposedModules...)
			sort.Strings(sorted)
			top["exposed-modules"] = mustJSON(sorted)
		}
		deps, err := renderConstraints(m.Deps)
		if err != nil {
			return nil, err
		}
		testDeps, err := renderConstraints(m.TestDeps)
		if err != nil {
			return nil, err
		}
		top["dependencies"] = deps
		top["test-dependencies"] = testDeps
	}

	return marshalCanonical(top)
}

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func renderPinned(direct, indirect map[identity.Identity]semver.Version) (json.RawMessage, error) {
	d, err := sortedObject(direct, func(v semver.Version) string { return v.String() }, 12)
	if err != nil {
		return nil, err
	}
	i, err := sortedObject(indirect, func(v semver.Version) string { return v.String() }, 12)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("{\n")
	buf.WriteString(`        "direct": `)
	buf.Write(d)
	buf.WriteString(",\n")
	buf.WriteString(`        "indirect": `)
	buf.Write(i)
	buf.WriteString("\n    }")
	return buf.Bytes(), nil
}

func renderConstraints(m map[identity.Identity]DepConstraint) (json.RawMessage, error) {
	return sortedObject(m, func(dc DepConstraint) string {
		if dc.Raw != "" {
			return dc.Raw
		}
		return dc.Range.Format()
	}, 8)
}

// sortedObject renders m as a JSON object with keys sorted by (author,
// name), each on its own line indented by itemIndent spaces (closing
// brace at itemIndent-4), or "{}" on one line if empty.
func sortedObject[V any](m map[identity.Identity]V, render func(V) string, itemIndent int) (json.RawMessage, error) {
	if len(m) == 0 {
		return json.RawMessage("{}"), nil
	}
	ids := make(identity.Identities, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Sort(ids)

	itemPad := strings.Repeat(" ", itemIndent)
	closePad := strings.Repeat(" ", itemIndent-4)

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, id := range ids {
		key, err := json.Marshal(id.String())
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(render(m[id]))
		if err != nil {
			return nil, err
		}
		buf.WriteString(itemPad)
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
		if i < len(ids)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString(closePad)
	buf.WriteString("}")
	return buf.Bytes(), nil
}

// marshalCanonical writes top as a 4-space-indented JSON object in a
// canonical top-level key order: known keys first in a fixed order,
// then any preserved unknown keys sorted by name, ending with a trailing
// newline.
func marshalCanonical(top map[string]json.RawMessage) ([]byte, error) {
	order := []string{
		"type", "name", "version", "summary", "license", "source-directories",
		"exposed-modules", "elm-version", "dependencies", "test-dependencies",
	}
	seen := make(map[string]bool, len(order))
	var buf bytes.Buffer
	buf.WriteString("{\n")

	var keys []string
	for _, k := range order {
		if _, ok := top[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var extra []string
	for k := range top {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	for i, k := range keys {
		keyJSON, _ := json.Marshal(k)
		buf.WriteString("    ")
		buf.Write(keyJSON)
		buf.WriteString(": ")
		buf.Write(top[k])
		if i < len(keys)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
