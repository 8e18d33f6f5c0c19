package alpine

import (
	"strings"
	"testing"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
)

const installed = `C:Q1abc=
P:musl
V:1.2.4-r2
A:x86_64
o:musl
p:so:libc.musl-x86_64.so.1=1

P:busybox
V:1.36.1-r5
A:x86_64
D:so:libc.musl-x86_64.so.1 /bin/sh
p:/bin/sh cmd:busybox=1.36.1-r5

P:alpine-baselayout
V:3.4.3-r1
A:x86_64
D:busybox>=1.36 !apk-tools-doc musl
`

func TestInstalledDB_Parse(t *testing.T) {
	entries, err := InstalledDB{}.Parse(installed)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	musl := entries[0].(Package)
	if musl.Name != "musl" || musl.Version != "1.2.4-r2" || musl.Architecture != "x86_64" {
		t.Errorf("entry 0 = %+v", musl)
	}

	rec := InstalledDB{}.Normalize(musl)
	if rec.Classifier != "x86_64" || rec.Locator != "musl" {
		t.Errorf("Normalize() = %+v, want classifier x86_64 locator musl", rec)
	}
}

func TestInstalledDB_Link(t *testing.T) {
	p := InstalledDB{}
	entries, err := p.Parse(installed)
	if err != nil {
		t.Fatal(err)
	}

	hints := p.Link(entries)
	got := make(map[string]bool)
	for _, r := range hints.Relations {
		got[r.Parent.Name+"->"+r.Child.Name] = true
	}

	want := []string{"busybox->musl", "alpine-baselayout->busybox", "alpine-baselayout->musl"}
	for _, w := range want {
		if !got[w] {
			t.Errorf("missing relation %s", w)
		}
	}
	if len(hints.Relations) != len(want) {
		t.Errorf("got %d relations, want %d: %v", len(hints.Relations), len(want), hints.Relations)
	}
}

func TestInstalledDB_Failures(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		want  string
	}{
		{"missing version", "P:musl\nA:x86_64\n", 1, "missing required field(s) V"},
		{"long key", "P:musl\nVersion:1\n", 2, "single-character key"},
		{"no colon", "P:musl\nV\n", 2, "single-character key"},
		{"two blank lines", "P:musl\nV:1.2.4-r2\nA:x86_64\n\n\nP:zlib\nV:1.3-r0\nA:x86_64\n", 5, "exactly one blank line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InstalledDB{}.Parse(tt.input)
			pf, ok := err.(*errors.ParseFailure)
			if !ok {
				t.Fatalf("error = %v, want *ParseFailure", err)
			}
			if pf.Line != tt.line || !strings.Contains(pf.Reason, tt.want) {
				t.Errorf("failure = %v, want line %d containing %q", pf, tt.line, tt.want)
			}
		})
	}
}

func TestInstalledDB_Empty(t *testing.T) {
	entries, err := InstalledDB{}.Parse("\n")
	if err != nil || len(entries) != 0 {
		t.Errorf("Parse(blank) = %v, %v, want no entries", entries, err)
	}
}

func TestAtomName(t *testing.T) {
	tests := map[string]string{
		"musl":                       "musl",
		"busybox>=1.36":              "busybox",
		"so:libc.musl-x86_64.so.1=1": "so:libc.musl-x86_64.so.1",
		"cmd:busybox=1.36.1-r5":      "cmd:busybox",
		"pc:zlib~1.3":                "pc:zlib",
	}
	for in, want := range tests {
		if got := atomName(in); got != want {
			t.Errorf("atomName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLanguage(t *testing.T) {
	p, err := Language.Default()
	if err != nil {
		t.Fatal(err)
	}
	if p.Ecosystem() != deps.Alpine || p.Format() != "apk-installed" {
		t.Errorf("Default() = %s/%s", p.Ecosystem(), p.Format())
	}
	if _, ok := Language.Parser("installed"); !ok {
		t.Error("alias installed not resolved")
	}
}
