package javascript

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
)

// PnpmPackage is one package of pnpm-lock.yaml.
type PnpmPackage struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Tarball      string   `json:"tarball,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"` // "name@version" ids
	Dev          bool     `json:"dev,omitempty"`
	Direct       bool     `json:"direct,omitempty"`
}

// Ecosystem implements deps.NativeEntry.
func (PnpmPackage) Ecosystem() deps.Ecosystem { return deps.JavaScript }

func (p PnpmPackage) id() string { return p.Name + "@" + p.Version }

// PnpmLock parses pnpm-lock.yaml files.
type PnpmLock struct{}

func (PnpmLock) Format() string            { return "pnpm-lock.yaml" }
func (PnpmLock) Ecosystem() deps.Ecosystem { return deps.JavaScript }
func (PnpmLock) Supports(name string) bool { return name == "pnpm-lock.yaml" }
func (PnpmLock) Patterns() []string        { return []string{"**/pnpm-lock.yaml"} }

type pnpmLock struct {
	Importers            map[string]pnpmImporter `yaml:"importers"`
	Dependencies         map[string]pnpmRef      `yaml:"dependencies"`
	DevDependencies      map[string]pnpmRef      `yaml:"devDependencies"`
	OptionalDependencies map[string]pnpmRef      `yaml:"optionalDependencies"`
	Packages             map[string]pnpmEntry    `yaml:"packages"`
	Snapshots            map[string]pnpmEntry    `yaml:"snapshots"`
}

type pnpmImporter struct {
	Dependencies         map[string]pnpmRef `yaml:"dependencies"`
	DevDependencies      map[string]pnpmRef `yaml:"devDependencies"`
	OptionalDependencies map[string]pnpmRef `yaml:"optionalDependencies"`
}

func (i pnpmImporter) refs() []string {
	var out []string
	for _, set := range []map[string]pnpmRef{i.Dependencies, i.DevDependencies, i.OptionalDependencies} {
		for name, ref := range set {
			if v := stripPeers(ref.Version); v != "" && !strings.HasPrefix(v, "link:") {
				out = append(out, name+"@"+v)
			}
		}
	}
	return out
}

type pnpmEntry struct {
	Resolution struct {
		Tarball string `yaml:"tarball"`
	} `yaml:"resolution"`
	Name                 string            `yaml:"name"`
	Version              string            `yaml:"version"`
	Dev                  bool              `yaml:"dev"`
	Dependencies         map[string]string `yaml:"dependencies"`
	OptionalDependencies map[string]string `yaml:"optionalDependencies"`
}

// pnpmRef is a dependency reference: a bare version string in v5 lock
// files, a {specifier, version} mapping from v6 on.
type pnpmRef struct {
	Version string
}

func (r *pnpmRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		r.Version = value.Value
		return nil
	case yaml.MappingNode:
		var m struct {
			Version string `yaml:"version"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		r.Version = m.Version
		return nil
	}
	return fmt.Errorf("line %d: dependency must be a version or a mapping", value.Line)
}

func (p PnpmLock) Parse(text string) ([]deps.NativeEntry, error) {
	var lock pnpmLock
	if err := deps.DecodeYAML(p.Format(), text, &lock); err != nil {
		return nil, err
	}

	root := pnpmImporter{
		Dependencies:         lock.Dependencies,
		DevDependencies:      lock.DevDependencies,
		OptionalDependencies: lock.OptionalDependencies,
	}
	if imp, ok := lock.Importers["."]; ok {
		root = imp
	}
	direct := make(map[string]bool)
	for _, id := range root.refs() {
		direct[id] = true
	}

	snapKeys := make([]string, 0, len(lock.Snapshots))
	for k := range lock.Snapshots {
		snapKeys = append(snapKeys, k)
	}
	slices.Sort(snapKeys)
	snapshots := make(map[string]pnpmEntry, len(lock.Snapshots))
	for _, k := range snapKeys {
		snap := lock.Snapshots[k]
		name, version, ok := parsePnpmKey(k)
		if !ok {
			continue
		}
		id := name + "@" + version
		merged := snapshots[id]
		merged.Dependencies = union(merged.Dependencies, snap.Dependencies)
		merged.OptionalDependencies = union(merged.OptionalDependencies, snap.OptionalDependencies)
		snapshots[id] = merged
	}

	keys := make([]string, 0, len(lock.Packages))
	for k := range lock.Packages {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	entries := make([]deps.NativeEntry, 0, len(keys))
	seen := make(map[string]bool)
	for _, k := range keys {
		e := lock.Packages[k]
		name, version, ok := parsePnpmKey(k)
		if e.Name != "" {
			name, ok = e.Name, true
		}
		if e.Version != "" {
			version = e.Version
		}
		if !ok || version == "" {
			return nil, errors.NewParseFailure(p.Format(), 0, "packages",
				"cannot determine name and version of %q", k)
		}

		pkg := PnpmPackage{Name: name, Version: version, Tarball: e.Resolution.Tarball, Dev: e.Dev}
		if seen[pkg.id()] {
			continue
		}
		seen[pkg.id()] = true

		depSource := e
		if snap, ok := snapshots[pkg.id()]; ok {
			depSource = snap
		}
		for _, set := range []map[string]string{depSource.Dependencies, depSource.OptionalDependencies} {
			for dep, ver := range set {
				if v := stripPeers(ver); v != "" && !strings.HasPrefix(v, "link:") {
					pkg.Dependencies = append(pkg.Dependencies, dep+"@"+v)
				}
			}
		}
		slices.Sort(pkg.Dependencies)
		pkg.Dependencies = slices.Compact(pkg.Dependencies)
		pkg.Direct = direct[pkg.id()]
		entries = append(entries, pkg)
	}
	return entries, nil
}

func (PnpmLock) Owns(entry deps.NativeEntry) bool {
	_, ok := entry.(PnpmPackage)
	return ok
}

func (p PnpmLock) Normalize(entry deps.NativeEntry) deps.Record {
	deps.MustMatch(p.Format(), deps.JavaScript, entry)
	pkg := entry.(PnpmPackage)
	return deps.Record{
		Ecosystem: deps.JavaScript,
		Name:      pkg.Name,
		Version:   pkg.Version,
		Locator:   pkg.Tarball,
	}
}

func (p PnpmLock) Link(entries []deps.NativeEntry) deps.Hints {
	keys := make(map[string]deps.Key, len(entries))
	for _, e := range entries {
		keys[e.(PnpmPackage).id()] = p.Normalize(e).Key()
	}

	var hints deps.Hints
	for _, e := range entries {
		pkg := e.(PnpmPackage)
		parent := keys[pkg.id()]
		if pkg.Direct {
			hints.Direct = append(hints.Direct, parent)
		}
		for _, id := range pkg.Dependencies {
			if child, ok := keys[id]; ok {
				hints.Relations = append(hints.Relations, deps.Relation{Parent: parent, Child: child})
			}
		}
	}
	return hints
}

// parsePnpmKey splits a packages key into name and version. It accepts
// "name@1.0.0" (v9), "/name@1.0.0" (v6) and "/name/1.0.0" (v5), each with an
// optional peer suffix.
func parsePnpmKey(key string) (name, version string, ok bool) {
	key = strings.TrimPrefix(key, "/")
	if i := strings.IndexByte(key, '('); i >= 0 {
		key = key[:i]
	}

	// v5: the last path segment is the version, possibly followed by "_peer".
	if last := strings.LastIndexByte(key, '/'); last > 0 {
		tail := key[last+1:]
		v, _, _ := strings.Cut(tail, "_")
		if tail != "" && tail[0] >= '0' && tail[0] <= '9' && !strings.Contains(v, "@") {
			return key[:last], v, true
		}
	}

	i := strings.LastIndexByte(key, '@')
	if i <= 0 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// stripPeers removes the peer-dependency suffix pnpm appends to versions:
// "(react@18.2.0)" in v6 and later, "_react@18.2.0" in v5.
func stripPeers(v string) string {
	if i := strings.IndexByte(v, '('); i >= 0 {
		v = v[:i]
	}
	if i := strings.IndexByte(v, '_'); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// union merges the peer variants of one snapshot. Conflicting versions keep
// the first value seen.
func union(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
	return dst
}
