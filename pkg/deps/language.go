package deps

import (
	"fmt"
	"strings"
)

// Language groups the formats of one ecosystem. Each ecosystem subpackage
// exports a single *Language value.
type Language struct {
	Name          Ecosystem
	DefaultFormat string
	// FormatAliases maps alternative names (usually filenames) to formats.
	FormatAliases map[string]string
	Parsers       []FormatParser
	Declarers     []Declarer
}

// Parser returns the parser registered under name or one of its aliases.
func (l *Language) Parser(name string) (FormatParser, bool) {
	name = l.alias(name)
	for _, p := range l.Parsers {
		if p.Format() == name {
			return p, true
		}
	}
	return nil, false
}

// Default returns the parser for DefaultFormat.
func (l *Language) Default() (FormatParser, error) {
	if p, ok := l.Parser(l.DefaultFormat); ok {
		return p, nil
	}
	return nil, fmt.Errorf("%s: default format %q not registered", l.Name, l.DefaultFormat)
}

// ParserFor returns the parser that produced entry. Parsers implementing
// EntryOwner are asked first; otherwise the default parser is used.
func (l *Language) ParserFor(entry NativeEntry) (FormatParser, error) {
	for _, p := range l.Parsers {
		if o, ok := p.(EntryOwner); ok && o.Owns(entry) {
			return p, nil
		}
	}
	return l.Default()
}

// Declarer returns the declarer registered under name or one of its aliases.
func (l *Language) Declarer(name string) (Declarer, bool) {
	name = l.alias(name)
	for _, d := range l.Declarers {
		if d.Format() == name {
			return d, true
		}
	}
	return nil, false
}

// Formats returns the names of every parser and declarer of the language.
func (l *Language) Formats() []string {
	names := make([]string, 0, len(l.Parsers)+len(l.Declarers))
	for _, p := range l.Parsers {
		names = append(names, p.Format())
	}
	for _, d := range l.Declarers {
		names = append(names, d.Format())
	}
	return names
}

func (l *Language) String() string {
	return fmt.Sprintf("%s (%s)", l.Name, strings.Join(l.Formats(), ", "))
}

func (l *Language) alias(name string) string {
	if v, ok := l.FormatAliases[name]; ok {
		return v
	}
	return name
}
