package deps

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Manifest describes a metadata file type a parser or declarer understands.
type Manifest interface {
	// Format returns the format identifier (e.g., "dpkg-status", "poetry.lock").
	Format() string
	// Ecosystem returns the ecosystem the format belongs to.
	Ecosystem() Ecosystem
	// Supports reports whether this format handles the given base filename.
	Supports(filename string) bool
	// Patterns returns doublestar globs over slash-separated, project-relative
	// paths that select files of this format during a scan.
	Patterns() []string
}

// FormatParser converts the full text of one metadata file into native
// entries and lifts those entries to canonical records.
//
// Implementations must be pure: no I/O and no shared mutable state, so a
// single parser value may be used from any number of goroutines.
type FormatParser interface {
	Manifest
	// Parse returns the file's entries in input order, or an
	// *errors.ParseFailure naming the grammar rule that was not satisfied.
	Parse(text string) ([]NativeEntry, error)
	// Normalize maps an entry produced by Parse to its canonical record.
	// Passing an entry from another parser is a programming error.
	Normalize(entry NativeEntry) Record
}

// EntryOwner is implemented by parsers that share their ecosystem with other
// formats. Owns reports whether entry has the concrete type Parse produces.
type EntryOwner interface {
	Owns(entry NativeEntry) bool
}

// Linker is implemented by parsers whose format carries dependency relations
// or direct-dependency markers.
type Linker interface {
	Link(entries []NativeEntry) Hints
}

// Declarer reads manifests that only declare dependency names without
// pinning versions (e.g., package.json). The names seed the direct flag of
// lock-file records from the same directory.
type Declarer interface {
	Manifest
	Declare(text string) ([]string, error)
}

// Matches reports whether the project-relative path rel selects m, either by
// one of its patterns or by its base filename.
func Matches(m Manifest, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range m.Patterns() {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return m.Supports(path.Base(rel))
}

// DetectManifest finds a parser that supports the given file path.
// Returns an error if no parser matches.
func DetectManifest(file string, parsers ...FormatParser) (FormatParser, error) {
	for _, p := range parsers {
		if Matches(p, file) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unsupported manifest: %s", filepath.Base(file))
}

// NormalizeAll normalizes every entry with p, preserving order.
func NormalizeAll(p FormatParser, entries []NativeEntry) []Record {
	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = p.Normalize(e)
	}
	return records
}

// LinkAll returns p's hints for entries, or empty hints when p is not a Linker.
func LinkAll(p FormatParser, entries []NativeEntry) Hints {
	if l, ok := p.(Linker); ok {
		return l.Link(entries)
	}
	return Hints{}
}

// MustMatch panics unless entry was produced for ecosystem want. Normalizers
// call it before asserting the entry's concrete type.
func MustMatch(format string, want Ecosystem, entry NativeEntry) {
	if entry == nil {
		panic(fmt.Sprintf("%s: normalize called with nil entry", format))
	}
	if got := entry.Ecosystem(); got != want {
		panic(fmt.Sprintf("%s: cannot normalize %s entry %T", format, got, entry))
	}
}
