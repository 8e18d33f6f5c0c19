package javascript

import (
	"slices"

	"github.com/matzehuels/depscan/pkg/deps"
)

// PackageJSON declares the dependencies named in package.json.
type PackageJSON struct{}

func (PackageJSON) Format() string            { return "package.json" }
func (PackageJSON) Ecosystem() deps.Ecosystem { return deps.JavaScript }
func (PackageJSON) Supports(name string) bool { return name == "package.json" }
func (PackageJSON) Patterns() []string        { return []string{"**/package.json"} }

type packageFile struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// Declare returns the sorted names of dependencies, devDependencies,
// peerDependencies and optionalDependencies.
func (p PackageJSON) Declare(text string) ([]string, error) {
	var pkg packageFile
	if err := deps.DecodeJSON(p.Format(), text, &pkg); err != nil {
		return nil, err
	}

	var names []string
	for _, set := range []map[string]string{pkg.Dependencies, pkg.DevDependencies, pkg.PeerDependencies, pkg.OptionalDependencies} {
		for name := range set {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}
