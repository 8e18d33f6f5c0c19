package python

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/deps/textscan"
	"github.com/matzehuels/depscan/pkg/errors"
)

// Requirement is one requirement line of a requirements file.
type Requirement struct {
	Name      string   `json:"name"`
	Version   string   `json:"version,omitempty"`   // set only for an exact == pin
	Specifier string   `json:"specifier,omitempty"` // full version specifier as written
	Extras    []string `json:"extras,omitempty"`
	Marker    string   `json:"marker,omitempty"`
	URL       string   `json:"url,omitempty"` // PEP 508 direct reference
	Line      int      `json:"line"`
}

// Ecosystem implements deps.NativeEntry.
func (Requirement) Ecosystem() deps.Ecosystem { return deps.Python }

// Requirements parses pip requirements files. Every requirement is a direct
// dependency of the project.
type Requirements struct{}

func (Requirements) Format() string            { return "requirements.txt" }
func (Requirements) Ecosystem() deps.Ecosystem { return deps.Python }
func (Requirements) Patterns() []string        { return []string{"**/requirements*.txt"} }

func (Requirements) Supports(name string) bool {
	return name == "requirements.txt" ||
		(strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"))
}

var (
	reqNameRE   = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(?:\[([^\]]*)\])?\s*`)
	specifierRE = regexp.MustCompile(`^\(?\s*(?:===|==|!=|~=|<=|>=|<|>)`)
	schemeRE    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*$`)
)

// Parse reads one requirement per logical line. Lines ending in a backslash
// continue on the next line; comments start with '#'. Option lines (-r, -e,
// --index-url, ...) and bare URLs or paths are consumed without producing
// entries.
func (r Requirements) Parse(text string) ([]deps.NativeEntry, error) {
	var entries []deps.NativeEntry
	for _, l := range logicalLines(text) {
		line := stripComment(l.Text)
		if line == "" || strings.HasPrefix(line, "-") || isLocation(line) {
			continue
		}
		req, err := parseRequirement(line)
		if err != nil {
			return nil, errors.NewParseFailure(r.Format(), l.No, "requirement", "%v", err)
		}
		req.Line = l.No
		entries = append(entries, req)
	}
	return entries, nil
}

func (Requirements) Owns(entry deps.NativeEntry) bool {
	_, ok := entry.(Requirement)
	return ok
}

func (r Requirements) Normalize(entry deps.NativeEntry) deps.Record {
	deps.MustMatch(r.Format(), deps.Python, entry)
	req := entry.(Requirement)
	return deps.Record{
		Ecosystem: deps.Python,
		Name:      req.Name,
		Version:   req.Version,
		Locator:   req.URL,
	}
}

// Link marks every requirement as direct.
func (r Requirements) Link(entries []deps.NativeEntry) deps.Hints {
	var hints deps.Hints
	for _, e := range entries {
		hints.Direct = append(hints.Direct, r.Normalize(e).Key())
	}
	return hints
}

// parseRequirement parses a PEP 508 requirement with pip's trailing
// per-requirement options (--hash=...) removed.
func parseRequirement(s string) (Requirement, error) {
	if i := strings.Index(s, " --"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}

	var req Requirement
	if i := strings.IndexByte(s, ';'); i >= 0 {
		req.Marker = strings.TrimSpace(s[i+1:])
		s = strings.TrimSpace(s[:i])
	}

	m := reqNameRE.FindStringSubmatchIndex(s)
	if m == nil {
		return req, fmt.Errorf("invalid requirement %q: expected a distribution name", s)
	}
	req.Name = NormalizeName(s[m[2]:m[3]])
	if m[4] >= 0 {
		for _, e := range strings.Split(s[m[4]:m[5]], ",") {
			if e = strings.TrimSpace(e); e != "" {
				req.Extras = append(req.Extras, e)
			}
		}
	}

	rest := strings.TrimSpace(s[m[1]:])
	switch {
	case rest == "":
	case strings.HasPrefix(rest, "@"):
		req.URL = strings.TrimSpace(rest[1:])
		if req.URL == "" {
			return req, fmt.Errorf("invalid requirement %q: empty URL after '@'", s)
		}
	case specifierRE.MatchString(rest):
		req.Specifier = strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")
		req.Version = pinnedVersion(req.Specifier)
	default:
		return req, fmt.Errorf("invalid requirement %q: unexpected %q after name", s, rest)
	}
	return req, nil
}

// pinnedVersion returns the version of a single exact "==" or "===" clause.
func pinnedVersion(spec string) string {
	spec = strings.TrimSpace(spec)
	if strings.Contains(spec, ",") {
		return ""
	}
	for _, op := range []string{"===", "=="} {
		if v, ok := strings.CutPrefix(spec, op); ok {
			v = strings.TrimSpace(v)
			if strings.Contains(v, "*") {
				return ""
			}
			return v
		}
	}
	return ""
}

// logicalLines joins backslash-continued lines. Each logical line keeps the
// number of its first physical line.
func logicalLines(text string) []textscan.Line {
	var out []textscan.Line
	var cur *textscan.Line
	for _, l := range textscan.Lines(text) {
		body, cont := strings.CutSuffix(l.Text, `\`)
		if cur == nil {
			out = append(out, textscan.Line{No: l.No})
			cur = &out[len(out)-1]
		}
		cur.Text += body
		if !cont {
			cur = nil
		}
	}
	return out
}

func stripComment(s string) string {
	if strings.HasPrefix(strings.TrimSpace(s), "#") {
		return ""
	}
	for i := 1; i < len(s); i++ {
		if s[i] == '#' && (s[i-1] == ' ' || s[i-1] == '\t') {
			s = s[:i]
			break
		}
	}
	return strings.TrimSpace(s)
}

func isLocation(s string) bool {
	if i := strings.Index(s, "://"); i > 0 && schemeRE.MatchString(s[:i]) {
		return true
	}
	return strings.HasPrefix(s, ".") || strings.HasPrefix(s, "/")
}
