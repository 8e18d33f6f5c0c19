package java

import "github.com/matzehuels/depscan/pkg/deps"

// Language provides the Java ecosystem's formats.
var Language = &deps.Language{
	Name:          deps.Java,
	DefaultFormat: "pom.xml",
	FormatAliases: map[string]string{"pom": "pom.xml", "maven": "pom.xml"},
	Parsers:       []deps.FormatParser{POM{}},
}
