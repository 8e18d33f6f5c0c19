package javascript

import "github.com/matzehuels/depscan/pkg/deps"

// Language provides the JavaScript ecosystem's formats.
var Language = &deps.Language{
	Name:          deps.JavaScript,
	DefaultFormat: "package-lock.json",
	FormatAliases: map[string]string{
		"npm":  "package-lock.json",
		"pnpm": "pnpm-lock.yaml",
	},
	Parsers:   []deps.FormatParser{PackageLock{}, PnpmLock{}},
	Declarers: []deps.Declarer{PackageJSON{}},
}
