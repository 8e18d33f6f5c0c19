package rust

import (
	"strings"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
)

// Crate is one locked, non-workspace crate of Cargo.lock.
type Crate struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Source       string   `json:"source"`
	Dependencies []string `json:"dependencies,omitempty"` // raw "name [version [(source)]]" strings
	Direct       bool     `json:"direct,omitempty"`       // a workspace member depends on it
}

// Ecosystem implements deps.NativeEntry.
func (Crate) Ecosystem() deps.Ecosystem { return deps.Rust }

// CargoLock parses Cargo.lock files.
type CargoLock struct{}

func (CargoLock) Format() string            { return "Cargo.lock" }
func (CargoLock) Ecosystem() deps.Ecosystem { return deps.Rust }
func (CargoLock) Supports(name string) bool { return name == "Cargo.lock" }
func (CargoLock) Patterns() []string        { return []string{"**/Cargo.lock"} }

type lockFile struct {
	Version  int         `toml:"version"`
	Packages []lockCrate `toml:"package"`
}

type lockCrate struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Source       string   `toml:"source"`
	Dependencies []string `toml:"dependencies"`
}

func (p CargoLock) Parse(text string) ([]deps.NativeEntry, error) {
	var lock lockFile
	if err := deps.DecodeTOML(p.Format(), text, &lock); err != nil {
		return nil, err
	}

	for i, c := range lock.Packages {
		if c.Name == "" || c.Version == "" {
			return nil, errors.NewParseFailure(p.Format(), 0, "[[package]]",
				"package #%d: name and version are required", i+1)
		}
		for _, d := range c.Dependencies {
			if _, _, ok := parseDependency(d); !ok {
				return nil, errors.NewParseFailure(p.Format(), 0, "dependencies",
					"package %s: malformed dependency %q", c.Name, d)
			}
		}
	}

	idx := newIndex(lock.Packages)
	direct := make(map[int]bool)
	for _, c := range lock.Packages {
		if c.Source != "" {
			continue
		}
		for _, d := range c.Dependencies {
			if j, ok := idx.resolve(d); ok && lock.Packages[j].Source != "" {
				direct[j] = true
			}
		}
	}

	var entries []deps.NativeEntry
	for i, c := range lock.Packages {
		if c.Source == "" {
			continue
		}
		entries = append(entries, Crate{
			Name:         c.Name,
			Version:      c.Version,
			Source:       c.Source,
			Dependencies: c.Dependencies,
			Direct:       direct[i],
		})
	}
	return entries, nil
}

func (p CargoLock) Normalize(entry deps.NativeEntry) deps.Record {
	deps.MustMatch(p.Format(), deps.Rust, entry)
	c := entry.(Crate)
	return deps.Record{
		Ecosystem: deps.Rust,
		Name:      c.Name,
		Version:   c.Version,
		Locator:   c.Source,
	}
}

// Link resolves dependency strings against the crates of the same file.
func (p CargoLock) Link(entries []deps.NativeEntry) deps.Hints {
	crates := make([]lockCrate, len(entries))
	for i, e := range entries {
		c := e.(Crate)
		crates[i] = lockCrate{Name: c.Name, Version: c.Version, Source: c.Source}
	}
	idx := newIndex(crates)

	var hints deps.Hints
	for _, e := range entries {
		c := e.(Crate)
		parent := p.Normalize(c).Key()
		if c.Direct {
			hints.Direct = append(hints.Direct, parent)
		}
		for _, d := range c.Dependencies {
			if j, ok := idx.resolve(d); ok {
				child := p.Normalize(entries[j]).Key()
				hints.Relations = append(hints.Relations, deps.Relation{Parent: parent, Child: child})
			}
		}
	}
	return hints
}

// parseDependency splits "name", "name version" or
// "name version (source)".
func parseDependency(s string) (name, version string, ok bool) {
	if i := strings.IndexByte(s, '('); i >= 0 {
		if !strings.HasSuffix(s, ")") {
			return "", "", false
		}
		s = s[:i]
	}
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return fields[0], "", true
	case 2:
		return fields[0], fields[1], true
	}
	return "", "", false
}

type index struct {
	byName map[string][]int
	crates []lockCrate
}

func newIndex(crates []lockCrate) index {
	idx := index{byName: make(map[string][]int), crates: crates}
	for i, c := range crates {
		idx.byName[c.Name] = append(idx.byName[c.Name], i)
	}
	return idx
}

// resolve finds the crate a dependency string refers to. A bare name is
// only resolved when exactly one crate has that name.
func (idx index) resolve(dep string) (int, bool) {
	name, version, ok := parseDependency(dep)
	if !ok {
		return 0, false
	}
	candidates := idx.byName[name]
	if version == "" {
		if len(candidates) == 1 {
			return candidates[0], true
		}
		return 0, false
	}
	for _, i := range candidates {
		if idx.crates[i].Version == version {
			return i, true
		}
	}
	return 0, false
}
