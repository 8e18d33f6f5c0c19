package deps

import (
	"slices"
	"strings"

	"github.com/matzehuels/depscan/pkg/errors"
)

// Registry dispatches ecosystem tags to format parsers. It is built once and
// read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	langs []*Language
}

// NewRegistry creates a registry over the given languages.
func NewRegistry(langs ...*Language) *Registry {
	return &Registry{langs: slices.Clone(langs)}
}

// Languages returns the registered languages in registration order.
func (r *Registry) Languages() []*Language {
	return slices.Clone(r.langs)
}

// Language returns the language for ecosystem e.
func (r *Registry) Language(e Ecosystem) (*Language, bool) {
	for _, l := range r.langs {
		if l.Name == e {
			return l, true
		}
	}
	return nil, false
}

// Lookup resolves tag to a parser. A tag is an ecosystem name (selecting the
// ecosystem's default format), a format name, or a format alias such as a
// filename. Unknown tags return an ErrCodeInvalidFormat error.
func (r *Registry) Lookup(tag string) (FormatParser, error) {
	if e, err := ParseEcosystem(tag); err == nil {
		if l, ok := r.Language(e); ok {
			return l.Default()
		}
	}
	for _, l := range r.langs {
		if p, ok := l.Parser(tag); ok {
			return p, nil
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat,
		"unknown format %q (available: %s)", tag, strings.Join(r.FormatNames(), ", "))
}

// LookupDeclarer resolves a format name or alias to a declarer.
func (r *Registry) LookupDeclarer(tag string) (Declarer, bool) {
	for _, l := range r.langs {
		if d, ok := l.Declarer(tag); ok {
			return d, true
		}
	}
	return nil, false
}

// Parsers returns every registered parser in registration order.
func (r *Registry) Parsers() []FormatParser {
	var out []FormatParser
	for _, l := range r.langs {
		out = append(out, l.Parsers...)
	}
	return out
}

// Declarers returns every registered declarer in registration order.
func (r *Registry) Declarers() []Declarer {
	var out []Declarer
	for _, l := range r.langs {
		out = append(out, l.Declarers...)
	}
	return out
}

// FormatNames returns the sorted names of every parser.
func (r *Registry) FormatNames() []string {
	var names []string
	for _, p := range r.Parsers() {
		names = append(names, p.Format())
	}
	slices.Sort(names)
	return names
}

// Detect returns the parser selecting the project-relative path rel.
func (r *Registry) Detect(rel string) (FormatParser, bool) {
	for _, p := range r.Parsers() {
		if Matches(p, rel) {
			return p, true
		}
	}
	return nil, false
}

// DetectDeclarer returns the declarer selecting the project-relative path rel.
func (r *Registry) DetectDeclarer(rel string) (Declarer, bool) {
	for _, d := range r.Declarers() {
		if Matches(d, rel) {
			return d, true
		}
	}
	return nil, false
}

// Parse runs the parser selected by tag over text.
func Parse(r *Registry, tag, text string) ([]NativeEntry, error) {
	p, err := r.Lookup(tag)
	if err != nil {
		return nil, err
	}
	return p.Parse(text)
}

// Normalize lifts entry to a canonical record with the parser selected by tag.
// An ecosystem tag selects the ecosystem's parser that produced entry, so
// entries of every format of the ecosystem normalize. It panics if entry
// belongs to a different ecosystem than the parser, since that pairing can
// only come from a programming error.
func Normalize(r *Registry, tag string, entry NativeEntry) Record {
	p, err := r.lookupFor(tag, entry)
	if err != nil {
		panic(err)
	}
	return p.Normalize(entry)
}

func (r *Registry) lookupFor(tag string, entry NativeEntry) (FormatParser, error) {
	if e, err := ParseEcosystem(tag); err == nil {
		if l, ok := r.Language(e); ok {
			return l.ParserFor(entry)
		}
	}
	return r.Lookup(tag)
}
