package graph

import (
	"slices"

	"github.com/matzehuels/depscan/pkg/deps"
)

// Builder accumulates records and relations into a graph. A Builder is not
// safe for concurrent use; the graphs it builds are.
type Builder struct {
	ecosystem deps.Ecosystem
	source    Source
	nodes     map[deps.Key]*Node
	edges     map[Edge]struct{}
}

// NewBuilder returns a builder for a graph tagged with eco. Every node added
// through the builder records source as its provenance unless source is zero.
func NewBuilder(eco deps.Ecosystem, source Source) *Builder {
	return &Builder{
		ecosystem: eco,
		source:    source,
		nodes:     make(map[deps.Key]*Node),
		edges:     make(map[Edge]struct{}),
	}
}

// Add inserts r as a node. Adding a record whose key is already present
// replaces a placeholder with the record and otherwise keeps the smallest
// non-empty locator.
func (b *Builder) Add(r deps.Record) {
	k := r.Key()
	if n, ok := b.nodes[k]; ok {
		n.Placeholder = false
		n.Locator = minLocator(n.Locator, r.Locator)
		return
	}
	b.nodes[k] = &Node{Record: r, Provenance: b.provenance()}
}

// MarkDirect flags the node with key k as a direct dependency. It reports
// whether such a node exists.
func (b *Builder) MarkDirect(k deps.Key) bool {
	n, ok := b.nodes[k]
	if ok {
		n.Direct = true
	}
	return ok
}

// MarkDirectFunc flags every node for which match returns true and returns
// how many nodes matched.
func (b *Builder) MarkDirectFunc(match func(deps.Key) bool) int {
	count := 0
	for k, n := range b.nodes {
		if match(k) {
			n.Direct = true
			count++
		}
	}
	return count
}

// Link records that parent depends on child. Endpoints without a node are
// inserted as placeholders first, so a relation is never dropped.
func (b *Builder) Link(parent, child deps.Key) {
	b.placeholder(parent)
	b.placeholder(child)
	b.edges[Edge{From: parent, To: child}] = struct{}{}
}

func (b *Builder) placeholder(k deps.Key) {
	if _, ok := b.nodes[k]; ok {
		return
	}
	b.nodes[k] = &Node{Record: deps.RecordFromKey(k), Placeholder: true, Provenance: b.provenance()}
}

func (b *Builder) provenance() []Source {
	if b.source.IsZero() {
		return nil
	}
	return []Source{b.source}
}

// Build returns the accumulated graph. The builder may be used further;
// later changes do not affect graphs already built.
func (b *Builder) Build() *Graph {
	nodes := make(map[deps.Key]*Node, len(b.nodes))
	for k, n := range b.nodes {
		c := n.clone()
		nodes[k] = &c
	}
	edges := make(map[Edge]struct{}, len(b.edges))
	for e := range b.edges {
		edges[e] = struct{}{}
	}
	return newGraph(b.ecosystem, nodes, edges)
}

// BuildOptions configures [Build].
type BuildOptions struct {
	// Ecosystem tags the graph. Leave empty for graphs mixing ecosystems.
	Ecosystem deps.Ecosystem
	// Source is recorded as the provenance of every node.
	Source Source
	// Direct lists keys the caller knows to be direct dependencies.
	Direct []deps.Key
	// DirectSelectors flag every matching node as direct.
	DirectSelectors []Selector
}

// Build creates a graph from records in order, then applies the relations
// and direct markers of hints and opts. Without relations the result is a
// set of isolated nodes, none of them direct unless flagged.
func Build(records []deps.Record, hints deps.Hints, opts BuildOptions) *Graph {
	b := NewBuilder(opts.Ecosystem, opts.Source)
	for _, r := range records {
		b.Add(r)
	}
	for _, rel := range hints.Relations {
		b.Link(rel.Parent, rel.Child)
	}
	for _, k := range slices.Concat(hints.Direct, opts.Direct) {
		b.MarkDirect(k)
	}
	if len(opts.DirectSelectors) > 0 {
		b.MarkDirectFunc(func(k deps.Key) bool {
			return slices.ContainsFunc(opts.DirectSelectors, func(s Selector) bool { return s.Matches(k) })
		})
	}
	return b.Build()
}

// FromParser parses text with p and builds the resulting graph. The graph is
// tagged with p's ecosystem unless opts names one.
func FromParser(p deps.FormatParser, text string, opts BuildOptions) (*Graph, error) {
	entries, err := p.Parse(text)
	if err != nil {
		return nil, err
	}
	if opts.Ecosystem == "" {
		opts.Ecosystem = p.Ecosystem()
	}
	return Build(deps.NormalizeAll(p, entries), deps.LinkAll(p, entries), opts), nil
}

// FromDeclared builds a graph of version-less direct nodes from the names a
// manifest declares.
func FromDeclared(eco deps.Ecosystem, names []string, source Source) *Graph {
	b := NewBuilder(eco, source)
	for _, name := range names {
		r := deps.Record{Ecosystem: eco, Name: name}
		b.Add(r)
		b.MarkDirect(r.Key())
	}
	return b.Build()
}

func minLocator(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return min(a, b)
}
