package ruby

import (
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/deps/textscan"
)

// Gemfile declares the gems named by `gem` statements in a Gemfile.
type Gemfile struct{}

func (Gemfile) Format() string            { return "Gemfile" }
func (Gemfile) Ecosystem() deps.Ecosystem { return deps.Ruby }
func (Gemfile) Supports(name string) bool { return name == "Gemfile" || name == "gems.rb" }
func (Gemfile) Patterns() []string        { return []string{"**/Gemfile", "**/gems.rb"} }

var gemPattern = regexp.MustCompile(`^\s*gem\s*\(?\s*['"]([^'"]+)['"]`)

func (Gemfile) Declare(text string) ([]string, error) {
	var gems []string
	for _, l := range textscan.Lines(text) {
		if strings.HasPrefix(strings.TrimSpace(l.Text), "#") {
			continue
		}
		if m := gemPattern.FindStringSubmatch(l.Text); m != nil {
			gems = append(gems, m[1])
		}
	}
	slices.Sort(gems)
	return slices.Compact(gems), nil
}
