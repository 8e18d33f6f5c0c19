package javascript

import (
	"slices"
	"strings"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
)

const nodeModules = "node_modules/"

// InstalledPackage is one node_modules entry of package-lock.json.
type InstalledPackage struct {
	Path         string   `json:"path"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Resolved     string   `json:"resolved,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Dev          bool     `json:"dev,omitempty"`
	Direct       bool     `json:"direct,omitempty"`
}

// Ecosystem implements deps.NativeEntry.
func (InstalledPackage) Ecosystem() deps.Ecosystem { return deps.JavaScript }

// PackageLock parses npm package-lock.json files.
type PackageLock struct{}

func (PackageLock) Format() string            { return "package-lock.json" }
func (PackageLock) Ecosystem() deps.Ecosystem { return deps.JavaScript }
func (PackageLock) Patterns() []string        { return []string{"**/package-lock.json", "**/npm-shrinkwrap.json"} }

func (PackageLock) Supports(name string) bool {
	return name == "package-lock.json" || name == "npm-shrinkwrap.json"
}

type packageLock struct {
	LockfileVersion int                     `json:"lockfileVersion"`
	Packages        map[string]lockedModule `json:"packages"`
}

type lockedModule struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Resolved             string            `json:"resolved"`
	Link                 bool              `json:"link"`
	Dev                  bool              `json:"dev"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
}

func (m lockedModule) requires(withDev bool) []string {
	var names []string
	for _, set := range []map[string]string{m.Dependencies, m.OptionalDependencies, m.PeerDependencies} {
		for n := range set {
			names = append(names, n)
		}
	}
	if withDev {
		for n := range m.DevDependencies {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func (p PackageLock) Parse(text string) ([]deps.NativeEntry, error) {
	var lock packageLock
	if err := deps.DecodeJSON(p.Format(), text, &lock); err != nil {
		return nil, err
	}
	if lock.LockfileVersion < 2 {
		return nil, errors.NewParseFailure(p.Format(), 0, "lockfileVersion",
			"lockfileVersion %d is not supported; regenerate the lock file with npm 7 or later", lock.LockfileVersion)
	}

	paths := make([]string, 0, len(lock.Packages))
	for path, m := range lock.Packages {
		if !strings.Contains(path, nodeModules) || m.Link {
			continue
		}
		if m.Version == "" {
			return nil, errors.NewParseFailure(p.Format(), 0, "packages",
				"%q: version is required", path)
		}
		paths = append(paths, path)
	}
	slices.Sort(paths)

	direct := make(map[string]bool)
	if root, ok := lock.Packages[""]; ok {
		for _, name := range root.requires(true) {
			if path, ok := resolveModule(lock.Packages, "", name); ok {
				direct[path] = true
			}
		}
	}

	entries := make([]deps.NativeEntry, 0, len(paths))
	for _, path := range paths {
		m := lock.Packages[path]
		name := m.Name
		if name == "" {
			name = moduleName(path)
		}
		entries = append(entries, InstalledPackage{
			Path:         path,
			Name:         name,
			Version:      m.Version,
			Resolved:     m.Resolved,
			Dependencies: m.requires(false),
			Dev:          m.Dev,
			Direct:       direct[path],
		})
	}
	return entries, nil
}

// Owns reports whether entry came from a package-lock.json file.
func (PackageLock) Owns(entry deps.NativeEntry) bool {
	_, ok := entry.(InstalledPackage)
	return ok
}

func (p PackageLock) Normalize(entry deps.NativeEntry) deps.Record {
	deps.MustMatch(p.Format(), deps.JavaScript, entry)
	m := entry.(InstalledPackage)
	return deps.Record{
		Ecosystem: deps.JavaScript,
		Name:      m.Name,
		Version:   m.Version,
		Locator:   m.Resolved,
	}
}

// Link follows Node's module resolution from each package's location.
func (p PackageLock) Link(entries []deps.NativeEntry) deps.Hints {
	byPath := make(map[string]lockedModule, len(entries))
	keys := make(map[string]deps.Key, len(entries))
	for _, e := range entries {
		m := e.(InstalledPackage)
		byPath[m.Path] = lockedModule{Version: m.Version}
		keys[m.Path] = p.Normalize(m).Key()
	}

	var hints deps.Hints
	for _, e := range entries {
		m := e.(InstalledPackage)
		parent := keys[m.Path]
		if m.Direct {
			hints.Direct = append(hints.Direct, parent)
		}
		for _, name := range m.Dependencies {
			if path, ok := resolveModule(byPath, m.Path, name); ok {
				hints.Relations = append(hints.Relations, deps.Relation{Parent: parent, Child: keys[path]})
			}
		}
	}
	return hints
}

// resolveModule finds the installed path of name as seen from the package at
// from: from/node_modules/name, then each enclosing node_modules directory,
// then the root.
func resolveModule(pkgs map[string]lockedModule, from, name string) (string, bool) {
	dir := from
	for {
		candidate := nodeModules + name
		if dir != "" {
			candidate = dir + "/" + candidate
		}
		if m, ok := pkgs[candidate]; ok && !m.Link {
			return candidate, true
		}
		if dir == "" {
			return "", false
		}
		i := strings.LastIndex(dir, nodeModules)
		if i < 0 {
			dir = ""
			continue
		}
		dir = strings.TrimSuffix(dir[:i], "/")
	}
}

// moduleName returns the package name of a node_modules path, keeping the
// scope of scoped packages: "node_modules/a/node_modules/@s/b" gives "@s/b".
func moduleName(path string) string {
	i := strings.LastIndex(path, nodeModules)
	return path[i+len(nodeModules):]
}
