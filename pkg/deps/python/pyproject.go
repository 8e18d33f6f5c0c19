package python

import (
	"slices"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
)

// Pyproject declares the direct dependencies listed in pyproject.toml, both
// PEP 621 ([project]) and Poetry ([tool.poetry]) style.
type Pyproject struct{}

func (Pyproject) Format() string            { return "pyproject.toml" }
func (Pyproject) Ecosystem() deps.Ecosystem { return deps.Python }
func (Pyproject) Supports(name string) bool { return name == "pyproject.toml" }
func (Pyproject) Patterns() []string        { return []string{"**/pyproject.toml"} }

type pyprojectFile struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// Declare returns the sorted, normalized names of all declared dependencies.
func (p Pyproject) Declare(text string) ([]string, error) {
	var f pyprojectFile
	if err := deps.DecodeTOML(p.Format(), text, &f); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	addSpec := func(spec string) error {
		req, err := parseRequirement(spec)
		if err != nil {
			return err
		}
		seen[req.Name] = true
		return nil
	}

	for _, spec := range f.Project.Dependencies {
		if err := addSpec(spec); err != nil {
			return nil, errors.NewParseFailure(p.Format(), 0, "[project]", "dependencies: %v", err)
		}
	}
	for extra, specs := range f.Project.OptionalDependencies {
		for _, spec := range specs {
			if err := addSpec(spec); err != nil {
				return nil, errors.NewParseFailure(p.Format(), 0, "[project]", "optional-dependencies.%s: %v", extra, err)
			}
		}
	}

	poetry := f.Tool.Poetry
	tables := []map[string]any{poetry.Dependencies, poetry.DevDependencies}
	for _, g := range poetry.Group {
		tables = append(tables, g.Dependencies)
	}
	for _, t := range tables {
		for name := range t {
			if name != "python" {
				seen[NormalizeName(name)] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)
	return names, nil
}
