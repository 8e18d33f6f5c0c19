package rust

import (
	"slices"

	"github.com/matzehuels/depscan/pkg/deps"
)

// CargoToml declares the dependencies named in a Cargo.toml manifest.
type CargoToml struct{}

func (CargoToml) Format() string            { return "Cargo.toml" }
func (CargoToml) Ecosystem() deps.Ecosystem { return deps.Rust }
func (CargoToml) Supports(name string) bool { return name == "Cargo.toml" }
func (CargoToml) Patterns() []string        { return []string{"**/Cargo.toml"} }

type dependencyTables struct {
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

type cargoFile struct {
	dependencyTables
	Target    map[string]dependencyTables `toml:"target"`
	Workspace struct {
		Dependencies map[string]any `toml:"dependencies"`
	} `toml:"workspace"`
}

// Declare returns the sorted crate names of every dependency table,
// following `package = "..."` renames.
func (c CargoToml) Declare(text string) ([]string, error) {
	var cargo cargoFile
	if err := deps.DecodeTOML(c.Format(), text, &cargo); err != nil {
		return nil, err
	}

	tables := []map[string]any{
		cargo.Dependencies, cargo.DevDependencies, cargo.BuildDependencies,
		cargo.Workspace.Dependencies,
	}
	for _, t := range cargo.Target {
		tables = append(tables, t.Dependencies, t.DevDependencies, t.BuildDependencies)
	}

	seen := make(map[string]bool)
	for _, t := range tables {
		for key, v := range t {
			name := key
			if spec, ok := v.(map[string]any); ok {
				if real, ok := spec["package"].(string); ok && real != "" {
					name = real
				}
			}
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)
	return names, nil
}
