package rust

import "github.com/matzehuels/depscan/pkg/deps"

// Language provides the Rust ecosystem's formats.
var Language = &deps.Language{
	Name:          deps.Rust,
	DefaultFormat: "Cargo.lock",
	FormatAliases: map[string]string{
		"cargo":      "Cargo.lock",
		"cargo.lock": "Cargo.lock",
		"cargo.toml": "Cargo.toml",
	},
	Parsers:   []deps.FormatParser{CargoLock{}},
	Declarers: []deps.Declarer{CargoToml{}},
}
