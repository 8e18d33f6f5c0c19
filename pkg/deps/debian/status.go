package debian

import (
	"strings"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/deps/textscan"
	"github.com/matzehuels/depscan/pkg/errors"
)

const format = "dpkg-status"

// Required fields, compared by exact string equality.
const (
	fieldPackage      = "Package"
	fieldVersion      = "Version"
	fieldArchitecture = "Architecture"
)

var requiredFields = []string{fieldPackage, fieldVersion, fieldArchitecture}

// Package is one entry of a dpkg status database.
type Package struct {
	Package      string `json:"package"`
	Version      string `json:"version"`
	Architecture string `json:"architecture"`
}

// Ecosystem implements deps.NativeEntry.
func (Package) Ecosystem() deps.Ecosystem { return deps.Debian }

// StatusFile parses dpkg status databases (/var/lib/dpkg/status) and the
// per-package files distroless images keep under status.d.
type StatusFile struct{}

func (StatusFile) Format() string            { return format }
func (StatusFile) Ecosystem() deps.Ecosystem { return deps.Debian }
func (StatusFile) Supports(name string) bool { return name == "status" }
func (StatusFile) Patterns() []string {
	return []string{"**/var/lib/dpkg/status", "**/var/lib/dpkg/status.d/*"}
}

// Parse reads every entry of a status file. Entries are separated by one
// blank line; trailing blank lines at the end of input are accepted. Any
// entry that lacks Package, Version or Architecture fails the whole parse.
func (StatusFile) Parse(text string) ([]deps.NativeEntry, error) {
	pkgs, err := ParseStatus(text)
	if err != nil {
		return nil, err
	}
	entries := make([]deps.NativeEntry, len(pkgs))
	for i, p := range pkgs {
		entries[i] = p
	}
	return entries, nil
}

// Normalize maps Architecture to the record classifier.
func (StatusFile) Normalize(entry deps.NativeEntry) deps.Record {
	deps.MustMatch(format, deps.Debian, entry)
	p := entry.(Package)
	return deps.Record{
		Ecosystem:  deps.Debian,
		Name:       p.Package,
		Version:    p.Version,
		Classifier: p.Architecture,
	}
}

// ParseStatus parses text into packages in input order.
func ParseStatus(text string) ([]Package, error) {
	c := textscan.New(text)
	var pkgs []Package

	for !c.EOF() {
		if c.OnlyLineBreaksRemain() {
			c.SkipAll()
			break
		}
		line := c.Line()
		fields, err := parseProperties(c)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			return nil, errors.NewParseFailure(format, line, "separator",
				"unexpected blank line; entries are separated by exactly one blank line")
		}
		pkg, err := entry(fields, line)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)

		// Properties stop at a line break that starts a line, which is the
		// blank separator between entries.
		c.SkipLineBreak()
	}
	return pkgs, nil
}

// parseProperties reads properties until a blank line or end of input.
// Duplicate keys keep the last value.
func parseProperties(c *textscan.Cursor) (map[string]string, error) {
	fields := make(map[string]string)
	for !c.EOF() && !c.AtLineBreak() {
		key, value, err := parseProperty(c)
		if err != nil {
			return nil, err
		}
		fields[key] = value
	}
	return fields, nil
}

func parseProperty(c *textscan.Cursor) (key, value string, err error) {
	line := c.Line()
	i := c.IndexOnLine(':')
	if i < 0 {
		return "", "", errors.NewParseFailure(format, line, "property",
			"expected ':' after key in %q", c.RestOfLine())
	}
	key = c.Take(i)
	c.Skip(1)
	c.SkipSpaceTab()
	return key, parseValue(c), nil
}

// parseValue reads the first line of a value and any continuation lines.
// A value ends at a line break not followed by a space, or at end of input;
// that line break is consumed. A continuation line holding only "." stands
// for an empty line.
func parseValue(c *textscan.Cursor) string {
	var b strings.Builder
	b.WriteString(c.TakeUntilLineBreak())
	for !c.EOF() {
		if next, ok := c.PeekAfterLineBreak(); !ok || next != ' ' {
			c.SkipLineBreak()
			break
		}
		c.SkipLineBreak()
		c.Skip(1)
		b.WriteByte('\n')
		if content := c.TakeUntilLineBreak(); content != "." {
			b.WriteString(content)
		}
	}
	return b.String()
}

func entry(fields map[string]string, line int) (Package, error) {
	var found, missing []string
	for _, k := range requiredFields {
		if _, ok := fields[k]; ok {
			found = append(found, k)
		} else {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		have := "none"
		if len(found) > 0 {
			have = strings.Join(found, ", ")
		}
		return Package{}, errors.NewParseFailure(format, line, "entry",
			"missing required field(s) %s (found: %s)", strings.Join(missing, ", "), have)
	}
	return Package{
		Package:      fields[fieldPackage],
		Version:      fields[fieldVersion],
		Architecture: fields[fieldArchitecture],
	}, nil
}
