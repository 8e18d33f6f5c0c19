package javascript

import (
	"reflect"
	"sort"
	"testing"
)

const pnpmV9 = `lockfileVersion: '9.0'

importers:
  .:
    dependencies:
      react-dom:
        specifier: ^18.2.0
        version: 18.2.0(react@18.2.0)
      react:
        specifier: ^18.2.0
        version: 18.2.0
    devDependencies:
      local-tool:
        specifier: workspace:*
        version: link:packages/tool

packages:
  react@18.2.0:
    resolution: {integrity: sha512-abc}
  react-dom@18.2.0:
    resolution: {integrity: sha512-def}
  loose-envify@1.4.0:
    resolution: {integrity: sha512-ghi}
  '@babel/core@7.23.0':
    resolution: {tarball: https://example.com/core.tgz}

snapshots:
  react@18.2.0:
    dependencies:
      loose-envify: 1.4.0
  react-dom@18.2.0(react@18.2.0):
    dependencies:
      loose-envify: 1.4.0
      react: 18.2.0
  loose-envify@1.4.0: {}
  '@babel/core@7.23.0': {}
`

const pnpmV6 = `lockfileVersion: '6.0'

dependencies:
  ms:
    specifier: ^2.1.3
    version: 2.1.3

packages:

  /ms@2.1.3:
    resolution: {integrity: sha512-xyz}
    dev: false

  /debug@4.3.4:
    resolution: {integrity: sha512-uvw}
    dependencies:
      ms: 2.1.2
    dev: true
`

func TestPnpmLock_V9(t *testing.T) {
	p := PnpmLock{}
	entries, err := p.Parse(pnpmV9)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("len(entries) = %d, want 4", len(entries))
	}

	hints := p.Link(entries)
	var direct []string
	for _, k := range hints.Direct {
		direct = append(direct, k.Name)
	}
	sort.Strings(direct)
	if want := []string{"react", "react-dom"}; !reflect.DeepEqual(direct, want) {
		t.Errorf("direct = %v, want %v", direct, want)
	}

	got := make(map[string]bool)
	for _, r := range hints.Relations {
		got[r.Parent.Name+"->"+r.Child.Name] = true
	}
	want := map[string]bool{
		"react->loose-envify":     true,
		"react-dom->loose-envify": true,
		"react-dom->react":        true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("relations = %v, want %v", got, want)
	}

	for _, e := range entries {
		if pkg := e.(PnpmPackage); pkg.Name == "@babel/core" {
			if rec := p.Normalize(pkg); rec.Version != "7.23.0" || rec.Locator != "https://example.com/core.tgz" {
				t.Errorf("@babel/core = %+v", rec)
			}
		}
	}
}

func TestPnpmLock_V6(t *testing.T) {
	p := PnpmLock{}
	entries, err := p.Parse(pnpmV6)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	hints := p.Link(entries)
	if len(hints.Direct) != 1 || hints.Direct[0].Name != "ms" {
		t.Errorf("Direct = %v, want [ms]", hints.Direct)
	}
	// debug wants ms 2.1.2, which is not locked.
	if len(hints.Relations) != 0 {
		t.Errorf("Relations = %v, want none", hints.Relations)
	}
}

func TestParsePnpmKey(t *testing.T) {
	tests := []struct {
		key           string
		name, version string
	}{
		{"react@18.2.0", "react", "18.2.0"},
		{"/react@18.2.0", "react", "18.2.0"},
		{"react-dom@18.2.0(react@18.2.0)", "react-dom", "18.2.0"},
		{"@babel/core@7.23.0", "@babel/core", "7.23.0"},
		{"/@babel/core@7.23.0", "@babel/core", "7.23.0"},
		{"/ms/2.1.3", "ms", "2.1.3"},
		{"/@babel/core/7.23.0", "@babel/core", "7.23.0"},
		{"/react-dom/18.2.0_react@18.2.0", "react-dom", "18.2.0"},
		{"lodash_x@1.0.0", "lodash_x", "1.0.0"},
	}
	for _, tt := range tests {
		name, version, ok := parsePnpmKey(tt.key)
		if !ok || name != tt.name || version != tt.version {
			t.Errorf("parsePnpmKey(%q) = %q, %q, %v, want %q, %q", tt.key, name, version, ok, tt.name, tt.version)
		}
	}
}
