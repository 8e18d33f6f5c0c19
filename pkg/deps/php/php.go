// Package php parses Composer metadata: composer.lock and the requirements
// declared in composer.json.
//
// Platform requirements (php, ext-*, lib-*, composer-*) are not packages and
// never produce records or edges.
package php

import (
	"strings"

	"github.com/matzehuels/depscan/pkg/deps"
)

// Language provides the PHP ecosystem's formats.
var Language = &deps.Language{
	Name:          deps.PHP,
	DefaultFormat: "composer.lock",
	FormatAliases: map[string]string{
		"composer": "composer.lock",
	},
	Parsers:   []deps.FormatParser{ComposerLock{}},
	Declarers: []deps.Declarer{ComposerJSON{}},
}

// isPlatform reports whether a requirement names the PHP runtime or one of
// its extensions rather than a package.
func isPlatform(name string) bool {
	name = strings.ToLower(name)
	return name == "php" || name == "php-64bit" || name == "hhvm" ||
		strings.HasPrefix(name, "ext-") ||
		strings.HasPrefix(name, "lib-") ||
		strings.HasPrefix(name, "composer-")
}
