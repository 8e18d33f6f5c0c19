// Package golang parses Go module metadata (go.mod).
//
// Every require directive becomes a record; requirements without an
// "// indirect" comment are the module's direct dependencies. A replace
// directive that applies to a requirement is recorded as its locator.
package golang

import "github.com/matzehuels/depscan/pkg/deps"

// Language provides the Go ecosystem's formats.
var Language = &deps.Language{
	Name:          deps.Go,
	DefaultFormat: "go.mod",
	FormatAliases: map[string]string{"gomod": "go.mod"},
	Parsers:       []deps.FormatParser{GoMod{}},
}
