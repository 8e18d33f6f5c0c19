package ruby

import (
	"strings"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/deps/textscan"
	"github.com/matzehuels/depscan/pkg/errors"
)

const lockFormat = "Gemfile.lock"

// Gem is one resolved gem of Gemfile.lock.
type Gem struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Platform     string   `json:"platform,omitempty"`
	Source       string   `json:"source,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Direct       bool     `json:"direct,omitempty"`
}

// Ecosystem implements deps.NativeEntry.
func (Gem) Ecosystem() deps.Ecosystem { return deps.Ruby }

// GemfileLock parses Bundler lock files.
type GemfileLock struct{}

func (GemfileLock) Format() string            { return lockFormat }
func (GemfileLock) Ecosystem() deps.Ecosystem { return deps.Ruby }
func (GemfileLock) Supports(name string) bool { return name == "Gemfile.lock" || name == "gems.locked" }
func (GemfileLock) Patterns() []string        { return []string{"**/Gemfile.lock", "**/gems.locked"} }

func isSourceSection(name string) bool {
	return name == "GEM" || name == "GIT" || name == "PATH"
}

func (p GemfileLock) Parse(text string) ([]deps.NativeEntry, error) {
	var (
		gems     []Gem
		direct   = make(map[string]bool)
		section  string
		remote   string
		revision string
		inSpecs  bool
	)

	for _, l := range textscan.Lines(text) {
		line := l.Text
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := textscan.Indent(line)
		body := line[indent:]

		if indent == 0 {
			section, remote, revision, inSpecs = strings.TrimSpace(body), "", "", false
			continue
		}

		switch {
		case isSourceSection(section):
			switch {
			case indent == 2:
				key, value, ok := strings.Cut(body, ":")
				if !ok {
					return nil, errors.NewParseFailure(lockFormat, l.No, section,
						"expected 'key: value', got %q", body)
				}
				value = strings.TrimSpace(value)
				switch key {
				case "remote":
					remote = value
				case "revision":
					revision = value
				case "specs":
					inSpecs = true
				}
			case inSpecs && indent == 4:
				name, version, ok := splitSpec(body)
				if !ok || version == "" {
					return nil, errors.NewParseFailure(lockFormat, l.No, "spec",
						"expected 'name (version)', got %q", body)
				}
				version, platform, _ := strings.Cut(version, "-")
				gems = append(gems, Gem{
					Name:     name,
					Version:  version,
					Platform: platform,
					Source:   source(section, remote, revision),
				})
			case inSpecs && indent == 6 && len(gems) > 0:
				name, _, ok := splitSpec(body)
				if !ok {
					return nil, errors.NewParseFailure(lockFormat, l.No, "dependency",
						"expected 'name [(requirement)]', got %q", body)
				}
				g := &gems[len(gems)-1]
				g.Dependencies = append(g.Dependencies, name)
			default:
				return nil, errors.NewParseFailure(lockFormat, l.No, section,
					"unexpected indentation of %d spaces", indent)
			}

		case section == "DEPENDENCIES":
			if indent != 2 {
				return nil, errors.NewParseFailure(lockFormat, l.No, section,
					"unexpected indentation of %d spaces", indent)
			}
			name, _, ok := splitSpec(body)
			if !ok {
				return nil, errors.NewParseFailure(lockFormat, l.No, section,
					"expected 'name [(requirement)]', got %q", body)
			}
			direct[strings.TrimSuffix(name, "!")] = true
		}
	}

	entries := make([]deps.NativeEntry, len(gems))
	for i, g := range gems {
		g.Direct = direct[g.Name]
		entries[i] = g
	}
	return entries, nil
}

// splitSpec splits "name (x)" into name and x. The parenthesized part is
// optional; anything else after the name is malformed.
func splitSpec(s string) (name, paren string, ok bool) {
	s = strings.TrimSpace(s)
	name, rest, found := strings.Cut(s, " ")
	if name == "" {
		return "", "", false
	}
	if !found {
		return name, "", true
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return "", "", false
	}
	return name, strings.TrimSpace(rest[1 : len(rest)-1]), true
}

func source(section, remote, revision string) string {
	switch {
	case section == "PATH":
		return "path:" + remote
	case revision != "":
		return remote + "@" + revision
	}
	return remote
}

func (p GemfileLock) Normalize(entry deps.NativeEntry) deps.Record {
	deps.MustMatch(lockFormat, deps.Ruby, entry)
	g := entry.(Gem)
	return deps.Record{
		Ecosystem:  deps.Ruby,
		Name:       g.Name,
		Version:    g.Version,
		Classifier: g.Platform,
		Locator:    g.Source,
	}
}

// Link connects each gem to every resolved variant of the gems it requires.
func (p GemfileLock) Link(entries []deps.NativeEntry) deps.Hints {
	byName := make(map[string][]deps.Key)
	for _, e := range entries {
		k := p.Normalize(e).Key()
		byName[k.Name] = append(byName[k.Name], k)
	}

	var hints deps.Hints
	for _, e := range entries {
		g := e.(Gem)
		parent := p.Normalize(g).Key()
		if g.Direct {
			hints.Direct = append(hints.Direct, parent)
		}
		for _, dep := range g.Dependencies {
			for _, child := range byName[dep] {
				hints.Relations = append(hints.Relations, deps.Relation{Parent: parent, Child: child})
			}
		}
	}
	return hints
}
