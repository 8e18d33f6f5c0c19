// Package alpine parses the apk installed database (lib/apk/db/installed).
//
// Entries are separated by a blank line. Every line of an entry is a
// single-character key, a colon and a value:
//
//	P:musl
//	V:1.2.4-r2
//	A:x86_64
//	D:so:libc.musl-x86_64.so.1
//	p:so:libc.musl-x86_64.so.1=1
//
// P, V and A are required. D lists dependency atoms, which are resolved to
// packages through the p (provides) lines of the other entries.
package alpine

import "github.com/matzehuels/depscan/pkg/deps"

// Language provides the Alpine ecosystem's formats.
var Language = &deps.Language{
	Name:          deps.Alpine,
	DefaultFormat: format,
	FormatAliases: map[string]string{
		"installed": format,
		"apk":       format,
	},
	Parsers: []deps.FormatParser{InstalledDB{}},
}
