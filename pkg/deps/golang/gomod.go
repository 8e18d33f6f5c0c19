package golang

import (
	stderrors "errors"

	"golang.org/x/mod/modfile"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
)

// Requirement is one require directive of go.mod.
type Requirement struct {
	Path     string `json:"path"`
	Version  string `json:"version"`
	Indirect bool   `json:"indirect,omitempty"`
	Replace  string `json:"replace,omitempty"` // "path@version" or a directory
}

// Ecosystem implements deps.NativeEntry.
func (Requirement) Ecosystem() deps.Ecosystem { return deps.Go }

// GoMod parses go.mod files.
type GoMod struct{}

func (GoMod) Format() string            { return "go.mod" }
func (GoMod) Ecosystem() deps.Ecosystem { return deps.Go }
func (GoMod) Supports(name string) bool { return name == "go.mod" }
func (GoMod) Patterns() []string        { return []string{"**/go.mod"} }

func (p GoMod) Parse(text string) ([]deps.NativeEntry, error) {
	f, err := modfile.Parse("go.mod", []byte(text), nil)
	if err != nil {
		var list modfile.ErrorList
		if stderrors.As(err, &list) && len(list) > 0 {
			return nil, errors.NewParseFailure(p.Format(), list[0].Pos.Line, list[0].Verb, "%v", list[0].Err)
		}
		return nil, errors.NewParseFailure(p.Format(), 0, "", "%v", err)
	}

	entries := make([]deps.NativeEntry, 0, len(f.Require))
	for _, req := range f.Require {
		entries = append(entries, Requirement{
			Path:     req.Mod.Path,
			Version:  req.Mod.Version,
			Indirect: req.Indirect,
			Replace:  replacement(f.Replace, req.Mod.Path, req.Mod.Version),
		})
	}
	return entries, nil
}

// replacement returns the target of the replace directive that applies to
// path@version. A versioned replace takes precedence over a path-wide one.
func replacement(replaces []*modfile.Replace, path, version string) string {
	var match *modfile.Replace
	for _, r := range replaces {
		if r.Old.Path != path {
			continue
		}
		if r.Old.Version == version {
			match = r
			break
		}
		if r.Old.Version == "" {
			match = r
		}
	}
	if match == nil {
		return ""
	}
	if match.New.Version == "" {
		return match.New.Path
	}
	return match.New.Path + "@" + match.New.Version
}

func (p GoMod) Normalize(entry deps.NativeEntry) deps.Record {
	deps.MustMatch(p.Format(), deps.Go, entry)
	r := entry.(Requirement)
	return deps.Record{
		Ecosystem: deps.Go,
		Name:      r.Path,
		Version:   r.Version,
		Locator:   r.Replace,
	}
}

// Link marks requirements without "// indirect" as direct. go.mod lists the
// full module graph flat, so it yields no relations.
func (p GoMod) Link(entries []deps.NativeEntry) deps.Hints {
	var hints deps.Hints
	for _, e := range entries {
		if !e.(Requirement).Indirect {
			hints.Direct = append(hints.Direct, p.Normalize(e).Key())
		}
	}
	return hints
}
