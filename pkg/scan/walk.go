package scan

import (
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/matzehuels/depscan/pkg/deps"
)

// DefaultIgnore lists the directories skipped when Options.Ignore is nil.
// They hold vendored or generated copies of other projects' manifests.
var DefaultIgnore = []string{
	"**/.git/**",
	"**/.hg/**",
	"**/.svn/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/target/**",
	"**/.venv/**",
	"**/__pycache__/**",
}

// File is a metadata file found under a scan root. Exactly one of Parser
// and Declarer is set.
type File struct {
	Path     string // operating-system path
	Rel      string // slash-separated path relative to the scan root
	Size     int64
	Parser   deps.FormatParser
	Declarer deps.Declarer
}

func (f File) manifest() deps.Manifest {
	if f.Parser != nil {
		return f.Parser
	}
	return f.Declarer
}

// Format returns the name of the format selected for f.
func (f File) Format() string { return f.manifest().Format() }

// Ecosystem returns the ecosystem of the format selected for f.
func (f File) Ecosystem() deps.Ecosystem { return f.manifest().Ecosystem() }

// Dir returns the slash-separated directory of f relative to the scan root.
func (f File) Dir() string { return path.Dir(f.Rel) }

// Discover walks root and returns every file selected by a parser or
// declarer pattern of reg, sorted by relative path. Parsers take precedence
// over declarers. Paths matching an ignore glob are skipped; for
// directories the glob is also tried against "dir/" so "**/x/**" prunes x.
func Discover(root string, reg *deps.Registry, ignore []string) ([]File, error) {
	if ignore == nil {
		ignore = DefaultIgnore
	}
	parsers, declarers := reg.Parsers(), reg.Declarers()

	var files []File
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if ignored(ignore, rel) || ignored(ignore, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignored(ignore, rel) {
			return nil
		}

		f := File{Path: p, Rel: rel}
		if i := slices.IndexFunc(parsers, func(m deps.FormatParser) bool { return selects(m, rel) }); i >= 0 {
			f.Parser = parsers[i]
		} else if i := slices.IndexFunc(declarers, func(m deps.Declarer) bool { return selects(m, rel) }); i >= 0 {
			f.Declarer = declarers[i]
		} else {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		f.Size = info.Size()
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Rel, b.Rel) })
	return files, nil
}

// selects matches rel against m's patterns only, never the bare base name.
func selects(m deps.Manifest, rel string) bool {
	for _, p := range m.Patterns() {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func ignored(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}
