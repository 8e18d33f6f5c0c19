// Package debian parses Debian package databases.
//
// The dpkg status file is a sequence of entries separated by a single blank
// line. Each entry is a list of "Key: value" properties; a value continues
// onto following lines that start with one space, and a continuation line of
// just "." represents an empty line:
//
//	Package: curl
//	Status: install ok installed
//	Architecture: amd64
//	Version: 7.68.0-1ubuntu2
//	Description: command line tool for transferring data with URL syntax
//	 curl is a command line tool for transferring data with URL syntax.
//	 .
//	 Supported protocols include HTTP and FTP.
//
// Only Package, Version and Architecture are consumed; they are required in
// every entry. Other properties are parsed and discarded. The format carries
// no usable relationship information, so a status file always yields a graph
// of isolated nodes.
package debian

import "github.com/matzehuels/depscan/pkg/deps"

// Language provides the Debian ecosystem's formats.
var Language = &deps.Language{
	Name:          deps.Debian,
	DefaultFormat: format,
	FormatAliases: map[string]string{
		"status": format,
		"dpkg":   format,
	},
	Parsers: []deps.FormatParser{StatusFile{}},
}
