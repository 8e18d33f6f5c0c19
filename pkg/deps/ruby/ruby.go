package ruby

import "github.com/matzehuels/depscan/pkg/deps"

// Language provides the Ruby ecosystem's formats.
var Language = &deps.Language{
	Name:          deps.Ruby,
	DefaultFormat: "Gemfile.lock",
	FormatAliases: map[string]string{
		"bundler": "Gemfile.lock",
		"gemfile": "Gemfile",
	},
	Parsers:   []deps.FormatParser{GemfileLock{}},
	Declarers: []deps.Declarer{Gemfile{}},
}
