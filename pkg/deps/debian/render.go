package debian

import "strings"

// Render writes packages back in status-file syntax, one blank line between
// entries. Multi-line values become space-indented continuation lines with
// "." standing for an empty line, so ParseStatus(Render(p)) returns p for any
// value whose first line does not start with a space or tab and whose other
// lines are not a literal ".".
func Render(pkgs []Package) string {
	var b strings.Builder
	for i, p := range pkgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeField(&b, fieldPackage, p.Package)
		writeField(&b, fieldVersion, p.Version)
		writeField(&b, fieldArchitecture, p.Architecture)
	}
	return b.String()
}

func writeField(b *strings.Builder, key, value string) {
	lines := strings.Split(value, "\n")
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(lines[0])
	b.WriteByte('\n')
	for _, l := range lines[1:] {
		b.WriteByte(' ')
		if l == "" {
			l = "."
		}
		b.WriteString(l)
		b.WriteByte('\n')
	}
}
