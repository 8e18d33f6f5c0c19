// Package ecosystems provides the complete list of supported ecosystems and
// the registry built from it.
//
// The individual ecosystem packages (debian, python, ...) import pkg/deps,
// so pkg/deps cannot import them back. Consumers that need every parser
// import this package instead:
//
//	entries, err := deps.Parse(ecosystems.Registry, "debian", text)
package ecosystems

import (
	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/deps/alpine"
	"github.com/matzehuels/depscan/pkg/deps/debian"
	"github.com/matzehuels/depscan/pkg/deps/golang"
	"github.com/matzehuels/depscan/pkg/deps/java"
	"github.com/matzehuels/depscan/pkg/deps/javascript"
	"github.com/matzehuels/depscan/pkg/deps/php"
	"github.com/matzehuels/depscan/pkg/deps/python"
	"github.com/matzehuels/depscan/pkg/deps/ruby"
	"github.com/matzehuels/depscan/pkg/deps/rust"
)

// All is the canonical list of supported ecosystems, in the order of
// deps.Ecosystems.
var All = []*deps.Language{
	debian.Language,
	alpine.Language,
	python.Language,
	rust.Language,
	golang.Language,
	javascript.Language,
	ruby.Language,
	php.Language,
	java.Language,
}

// Registry dispatches over every language in All.
var Registry = deps.NewRegistry(All...)

// Find returns the Language for the named ecosystem (aliases accepted), or
// nil if there is none.
func Find(name string) *deps.Language {
	e, err := deps.ParseEcosystem(name)
	if err != nil {
		return nil
	}
	l, _ := Registry.Language(e)
	return l
}
