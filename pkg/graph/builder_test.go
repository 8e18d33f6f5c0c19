package graph

import (
	"testing"

	"github.com/matzehuels/depscan/pkg/deps"
)

func key(name, version string) deps.Key {
	return deps.Key{Ecosystem: deps.Python, Name: name, Version: version}
}

func rec(name, version string) deps.Record {
	return deps.RecordFromKey(key(name, version))
}

func TestBuild_IsolatedNodes(t *testing.T) {
	g := Build([]deps.Record{rec("b", "1"), rec("a", "1"), rec("a", "1")}, deps.Hints{}, BuildOptions{})

	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
	for _, n := range g.Nodes() {
		if n.Direct {
			t.Errorf("%s is direct without being flagged", n.Key())
		}
	}
	if keys := g.Keys(); keys[0].Name != "a" {
		t.Errorf("Keys() = %v, want sorted", keys)
	}
}

func TestBuild_PlaceholderForUnknownChild(t *testing.T) {
	hints := deps.Hints{
		Relations: []deps.Relation{{Parent: key("app", "1"), Child: key("lib", "2")}},
	}
	g := Build([]deps.Record{rec("app", "1")}, hints, BuildOptions{})

	n, ok := g.Node(key("lib", "2"))
	if !ok {
		t.Fatal("child node missing")
	}
	if !n.Placeholder {
		t.Error("child should be a placeholder")
	}
	if !g.HasEdge(key("app", "1"), key("lib", "2")) {
		t.Error("edge app -> lib missing")
	}
}

func TestBuilder_AddReplacesPlaceholder(t *testing.T) {
	b := NewBuilder(deps.Python, Source{})
	b.Link(key("app", "1"), key("lib", "2"))
	b.Add(deps.Record{Ecosystem: deps.Python, Name: "lib", Version: "2", Locator: "https://pypi.org"})

	n, _ := b.Build().Node(key("lib", "2"))
	if n.Placeholder {
		t.Error("node should no longer be a placeholder")
	}
	if n.Locator != "https://pypi.org" {
		t.Errorf("Locator = %q", n.Locator)
	}
}

func TestBuilder_BuildIsSnapshot(t *testing.T) {
	b := NewBuilder(deps.Python, Source{})
	b.Add(rec("a", "1"))
	g := b.Build()
	b.Add(rec("b", "1"))
	b.MarkDirect(key("a", "1"))

	if g.NodeCount() != 1 {
		t.Errorf("earlier graph changed: NodeCount() = %d", g.NodeCount())
	}
	if n, _ := g.Node(key("a", "1")); n.Direct {
		t.Error("earlier graph changed: a became direct")
	}
}

func TestBuild_DuplicateRelations(t *testing.T) {
	rel := deps.Relation{Parent: key("a", "1"), Child: key("b", "1")}
	g := Build(nil, deps.Hints{Relations: []deps.Relation{rel, rel}}, BuildOptions{})
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestBuild_Cycle(t *testing.T) {
	hints := deps.Hints{Relations: []deps.Relation{
		{Parent: key("a", "1"), Child: key("b", "1")},
		{Parent: key("b", "1"), Child: key("a", "1")},
	}}
	g := Build([]deps.Record{rec("a", "1"), rec("b", "1")}, hints, BuildOptions{})
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	if len(g.Roots()) != 0 {
		t.Errorf("Roots() = %v, want none in a cycle", g.Roots())
	}
}

func TestBuild_Direct(t *testing.T) {
	records := []deps.Record{rec("a", "1"), rec("b", "1"), rec("c", "1"), rec("c", "2")}
	tests := []struct {
		name  string
		hints deps.Hints
		opts  BuildOptions
		want  []string
	}{
		{"none", deps.Hints{}, BuildOptions{}, nil},
		{"from hints", deps.Hints{Direct: []deps.Key{key("a", "1")}}, BuildOptions{}, []string{"a@1"}},
		{"from caller", deps.Hints{}, BuildOptions{Direct: []deps.Key{key("b", "1")}}, []string{"b@1"}},
		{"unknown key ignored", deps.Hints{}, BuildOptions{Direct: []deps.Key{key("zzz", "1")}}, nil},
		{
			"selector any version", deps.Hints{},
			BuildOptions{DirectSelectors: []Selector{{Ecosystem: deps.Python, Name: "c"}}},
			[]string{"c@1", "c@2"},
		},
		{
			"selector pinned", deps.Hints{},
			BuildOptions{DirectSelectors: []Selector{{Ecosystem: deps.Python, Name: "c", Version: "2"}}},
			[]string{"c@2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Build(records, tt.hints, tt.opts)
			var got []string
			for _, n := range g.Direct() {
				got = append(got, n.Name+"@"+n.Version)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Direct() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Direct() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestBuild_Provenance(t *testing.T) {
	src := Source{Path: "poetry.lock", Format: "poetry.lock"}
	g := Build([]deps.Record{rec("a", "1")}, deps.Hints{}, BuildOptions{Source: src})
	n, _ := g.Node(key("a", "1"))
	if len(n.Provenance) != 1 || n.Provenance[0] != src {
		t.Errorf("Provenance = %v, want [%v]", n.Provenance, src)
	}
}

func TestNodesReturnsCopies(t *testing.T) {
	src := Source{Path: "x", Format: "y"}
	g := Build([]deps.Record{rec("a", "1")}, deps.Hints{}, BuildOptions{Source: src})
	nodes := g.Nodes()
	nodes[0].Provenance[0].Path = "mutated"
	nodes[0].Direct = true

	n, _ := g.Node(key("a", "1"))
	if n.Provenance[0].Path != "x" || n.Direct {
		t.Error("mutating a returned node changed the graph")
	}
}

func TestFromDeclared(t *testing.T) {
	g := FromDeclared(deps.JavaScript, []string{"react", "lodash"}, Source{Path: "package.json", Format: "package.json"})
	if g.NodeCount() != 2 || len(g.Direct()) != 2 {
		t.Errorf("FromDeclared: %d nodes, %d direct; want 2, 2", g.NodeCount(), len(g.Direct()))
	}
	if g.Ecosystem() != deps.JavaScript {
		t.Errorf("Ecosystem() = %q", g.Ecosystem())
	}
}

func TestNilGraph(t *testing.T) {
	var g *Graph
	if g.NodeCount() != 0 || g.EdgeCount() != 0 || !g.Empty() || g.Ecosystem() != "" {
		t.Error("nil graph should behave as empty")
	}
	if _, ok := g.Node(key("a", "1")); ok {
		t.Error("nil graph has no nodes")
	}
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		in      string
		want    Selector
		wantErr bool
	}{
		{"python:requests", Selector{Ecosystem: deps.Python, Name: "requests"}, false},
		{"npm:@babel/core@7.23.0", Selector{Ecosystem: deps.JavaScript, Name: "@babel/core", Version: "7.23.0"}, false},
		{"npm:@babel/core", Selector{Ecosystem: deps.JavaScript, Name: "@babel/core"}, false},
		{"debian:zlib1g@1:1.2.11", Selector{Ecosystem: deps.Debian, Name: "zlib1g", Version: "1:1.2.11"}, false},
		{"requests", Selector{}, true},
		{"cobol:x", Selector{}, true},
		{"python:", Selector{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSelector(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSelector(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSelector(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithDirect(t *testing.T) {
	g := Build([]deps.Record{rec("flask", "3.0.0"), rec("werkzeug", "3.0.1")},
		deps.Hints{Relations: []deps.Relation{{Parent: key("flask", "3.0.0"), Child: key("werkzeug", "3.0.1")}}},
		BuildOptions{Ecosystem: deps.Python})

	got := WithDirect(g, Selector{Ecosystem: deps.Python, Name: "flask"})
	if n, _ := got.Node(key("flask", "3.0.0")); !n.Direct {
		t.Error("flask should be direct")
	}
	if n, _ := got.Node(key("werkzeug", "3.0.1")); n.Direct {
		t.Error("werkzeug should not be direct")
	}
	if n, _ := g.Node(key("flask", "3.0.0")); n.Direct {
		t.Error("WithDirect modified its input")
	}
	if !got.HasEdge(key("flask", "3.0.0"), key("werkzeug", "3.0.1")) {
		t.Error("WithDirect dropped an edge")
	}
	if got.Ecosystem() != deps.Python {
		t.Errorf("Ecosystem() = %q, want python", got.Ecosystem())
	}

	if same := WithDirect(got, Selector{Ecosystem: deps.Python, Name: "flask"}); same != got {
		t.Error("WithDirect without changes should return its input")
	}
	if same := WithDirect(g, Selector{Ecosystem: deps.Rust, Name: "flask"}); same != g {
		t.Error("selector of another ecosystem should not match")
	}
}
