package python

import (
	"slices"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
)

// LockedPackage is one [[package]] table of poetry.lock.
type LockedPackage struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Source       string   `json:"source,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Ecosystem implements deps.NativeEntry.
func (LockedPackage) Ecosystem() deps.Ecosystem { return deps.Python }

// PoetryLock parses poetry.lock files. The lock file holds the full
// transitive closure; which packages are direct comes from pyproject.toml.
type PoetryLock struct{}

func (PoetryLock) Format() string            { return "poetry.lock" }
func (PoetryLock) Ecosystem() deps.Ecosystem { return deps.Python }
func (PoetryLock) Supports(name string) bool { return name == "poetry.lock" }
func (PoetryLock) Patterns() []string        { return []string{"**/poetry.lock"} }

type lockFile struct {
	Packages []lockPackage `toml:"package"`
}

type lockPackage struct {
	Name         string         `toml:"name"`
	Version      string         `toml:"version"`
	Dependencies map[string]any `toml:"dependencies"`
	Source       struct {
		Type      string `toml:"type"`
		URL       string `toml:"url"`
		Reference string `toml:"reference"`
	} `toml:"source"`
}

func (p PoetryLock) Parse(text string) ([]deps.NativeEntry, error) {
	var lock lockFile
	if err := deps.DecodeTOML(p.Format(), text, &lock); err != nil {
		return nil, err
	}

	entries := make([]deps.NativeEntry, 0, len(lock.Packages))
	for i, pkg := range lock.Packages {
		if pkg.Name == "" || pkg.Version == "" {
			return nil, errors.NewParseFailure(p.Format(), 0, "[[package]]",
				"package #%d: name and version are required", i+1)
		}
		lp := LockedPackage{
			Name:    NormalizeName(pkg.Name),
			Version: pkg.Version,
			Source:  pkg.Source.URL,
		}
		for dep := range pkg.Dependencies {
			lp.Dependencies = append(lp.Dependencies, NormalizeName(dep))
		}
		slices.Sort(lp.Dependencies)
		entries = append(entries, lp)
	}
	return entries, nil
}

// Owns reports whether entry came from a poetry.lock file.
func (PoetryLock) Owns(entry deps.NativeEntry) bool {
	_, ok := entry.(LockedPackage)
	return ok
}

func (p PoetryLock) Normalize(entry deps.NativeEntry) deps.Record {
	deps.MustMatch(p.Format(), deps.Python, entry)
	lp := entry.(LockedPackage)
	return deps.Record{
		Ecosystem: deps.Python,
		Name:      lp.Name,
		Version:   lp.Version,
		Locator:   lp.Source,
	}
}

// Link creates an edge for every dependency that is locked in the same file.
func (p PoetryLock) Link(entries []deps.NativeEntry) deps.Hints {
	byName := make(map[string]deps.Key, len(entries))
	for _, e := range entries {
		k := p.Normalize(e).Key()
		if _, ok := byName[k.Name]; !ok {
			byName[k.Name] = k
		}
	}

	var hints deps.Hints
	for _, e := range entries {
		parent := p.Normalize(e).Key()
		for _, dep := range e.(LockedPackage).Dependencies {
			if child, ok := byName[dep]; ok {
				hints.Relations = append(hints.Relations, deps.Relation{Parent: parent, Child: child})
			}
		}
	}
	return hints
}
