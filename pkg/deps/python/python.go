// Package python parses Python dependency metadata: poetry.lock,
// requirements files, and the dependency declarations of pyproject.toml.
//
// Package names are normalized as in PEP 503 ("Flask_SQLAlchemy" and
// "flask.sqlalchemy" both become "flask-sqlalchemy") so that a name read
// from one format matches the same package in another.
package python

import (
	"regexp"
	"strings"

	"github.com/matzehuels/depscan/pkg/deps"
)

// Language provides the Python ecosystem's formats.
var Language = &deps.Language{
	Name:          deps.Python,
	DefaultFormat: "poetry.lock",
	FormatAliases: map[string]string{
		"poetry":       "poetry.lock",
		"requirements": "requirements.txt",
		"pyproject":    "pyproject.toml",
	},
	Parsers:   []deps.FormatParser{PoetryLock{}, Requirements{}},
	Declarers: []deps.Declarer{Pyproject{}},
}

var separatorRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName returns the PEP 503 normalized form of a distribution name.
func NormalizeName(name string) string {
	return separatorRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
