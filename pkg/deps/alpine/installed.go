package alpine

import (
	"strings"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/deps/textscan"
	"github.com/matzehuels/depscan/pkg/errors"
)

const format = "apk-installed"

// Package is one entry of the apk installed database.
type Package struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Architecture string   `json:"architecture"`
	Origin       string   `json:"origin,omitempty"`
	Depends      []string `json:"depends,omitempty"`
	Provides     []string `json:"provides,omitempty"`
}

// Ecosystem implements deps.NativeEntry.
func (Package) Ecosystem() deps.Ecosystem { return deps.Alpine }

// InstalledDB parses the apk installed database.
type InstalledDB struct{}

func (InstalledDB) Format() string            { return format }
func (InstalledDB) Ecosystem() deps.Ecosystem { return deps.Alpine }
func (InstalledDB) Supports(name string) bool { return name == "installed" }
func (InstalledDB) Patterns() []string        { return []string{"**/lib/apk/db/installed"} }

// Parse reads every entry of the database in input order.
func (InstalledDB) Parse(text string) ([]deps.NativeEntry, error) {
	c := textscan.New(text)
	var entries []deps.NativeEntry

	for !c.EOF() {
		if c.OnlyLineBreaksRemain() {
			c.SkipAll()
			break
		}
		pkg, err := parseEntry(c)
		if err != nil {
			return nil, err
		}
		entries = append(entries, pkg)
		c.SkipLineBreak()
	}
	return entries, nil
}

func parseEntry(c *textscan.Cursor) (Package, error) {
	start := c.Line()
	var pkg Package
	seen := make(map[byte]bool)

	for !c.EOF() && !c.AtLineBreak() {
		line := c.Line()
		text := c.TakeUntilLineBreak()
		c.SkipLineBreak()
		if len(text) < 2 || text[1] != ':' {
			return Package{}, errors.NewParseFailure(format, line, "line",
				"expected single-character key followed by ':' in %q", text)
		}
		key, value := text[0], text[2:]
		seen[key] = true
		switch key {
		case 'P':
			pkg.Name = value
		case 'V':
			pkg.Version = value
		case 'A':
			pkg.Architecture = value
		case 'o':
			pkg.Origin = value
		case 'D':
			pkg.Depends = strings.Fields(value)
		case 'p':
			pkg.Provides = strings.Fields(value)
		}
	}

	if len(seen) == 0 {
		return Package{}, errors.NewParseFailure(format, start, "separator",
			"unexpected blank line; entries are separated by exactly one blank line")
	}

	var missing []string
	for _, k := range []byte{'P', 'V', 'A'} {
		if !seen[k] {
			missing = append(missing, string(k))
		}
	}
	if len(missing) > 0 {
		return Package{}, errors.NewParseFailure(format, start, "entry",
			"missing required field(s) %s", strings.Join(missing, ", "))
	}
	return pkg, nil
}

// Normalize maps the apk architecture to the record classifier and the
// origin package to the locator.
func (InstalledDB) Normalize(entry deps.NativeEntry) deps.Record {
	deps.MustMatch(format, deps.Alpine, entry)
	p := entry.(Package)
	return deps.Record{
		Ecosystem:  deps.Alpine,
		Name:       p.Name,
		Version:    p.Version,
		Classifier: p.Architecture,
		Locator:    p.Origin,
	}
}

// Link resolves every D: atom to the package that provides it. Atoms that no
// installed package provides are dropped.
func (p InstalledDB) Link(entries []deps.NativeEntry) deps.Hints {
	providers := make(map[string]deps.Key)
	pkgs := make([]Package, 0, len(entries))
	for _, e := range entries {
		pkg := e.(Package)
		pkgs = append(pkgs, pkg)
		key := p.Normalize(pkg).Key()
		providers[pkg.Name] = key
		for _, atom := range pkg.Provides {
			if name := atomName(atom); name != "" {
				if _, taken := providers[name]; !taken {
					providers[name] = key
				}
			}
		}
	}

	var hints deps.Hints
	for _, pkg := range pkgs {
		parent := p.Normalize(pkg).Key()
		for _, atom := range pkg.Depends {
			if strings.HasPrefix(atom, "!") {
				continue
			}
			if child, ok := providers[atomName(atom)]; ok && child != parent {
				hints.Relations = append(hints.Relations, deps.Relation{Parent: parent, Child: child})
			}
		}
	}
	return hints
}

// atomName strips version constraints from a dependency or provides atom:
// "so:libc.musl-x86_64.so.1=1" becomes "so:libc.musl-x86_64.so.1" and
// "busybox>=1.36" becomes "busybox".
func atomName(atom string) string {
	if i := strings.IndexAny(atom, "<>=~"); i >= 0 {
		return atom[:i]
	}
	return atom
}
