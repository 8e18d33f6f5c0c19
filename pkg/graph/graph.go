package graph

import (
	"cmp"
	"maps"
	"slices"

	"github.com/matzehuels/depscan/pkg/deps"
)

// Source identifies one piece of evidence for a node: the metadata file it
// was read from and the format that parsed it.
type Source struct {
	Path   string `json:"path" yaml:"path" bson:"path" msgpack:"path"`
	Format string `json:"format" yaml:"format" bson:"format" msgpack:"format"`
}

func (s Source) String() string {
	if s.Path == "" {
		return s.Format
	}
	return s.Path + " (" + s.Format + ")"
}

// IsZero reports whether s carries no information.
func (s Source) IsZero() bool { return s == Source{} }

func compareSources(a, b Source) int {
	return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Format, b.Format))
}

// Node is a dependency record placed in a graph.
type Node struct {
	deps.Record
	// Direct is set when any source declares the package as a top-level
	// dependency of the project. Merging never clears it.
	Direct bool
	// Provenance lists every source that contributed evidence for the node,
	// sorted and without duplicates.
	Provenance []Source
	// Placeholder marks a node that is only known as the endpoint of a
	// relation; no source produced a record for it.
	Placeholder bool
}

// Edge is a parent-depends-on-child relation between two nodes.
type Edge struct {
	From deps.Key
	To   deps.Key
}

func compareEdges(a, b Edge) int {
	return cmp.Or(deps.CompareKeys(a.From, b.From), deps.CompareKeys(a.To, b.To))
}

// Graph is an immutable dependency graph. Every edge's endpoints are nodes of
// the graph, node keys are unique and there are no duplicate edges. Cycles
// are allowed.
//
// The zero value is an empty graph. Use a [Builder], [Build] or [Merge] to
// create non-empty graphs.
type Graph struct {
	ecosystem deps.Ecosystem
	nodes     map[deps.Key]*Node
	keys      []deps.Key // sorted
	edges     []Edge     // sorted
	outgoing  map[deps.Key][]deps.Key
	incoming  map[deps.Key][]deps.Key
}

// newGraph indexes nodes and edges. It takes ownership of both arguments.
func newGraph(eco deps.Ecosystem, nodes map[deps.Key]*Node, edges map[Edge]struct{}) *Graph {
	g := &Graph{
		ecosystem: eco,
		nodes:     nodes,
		keys:      slices.SortedFunc(maps.Keys(nodes), deps.CompareKeys),
		edges:     slices.SortedFunc(maps.Keys(edges), compareEdges),
		outgoing:  make(map[deps.Key][]deps.Key),
		incoming:  make(map[deps.Key][]deps.Key),
	}
	for _, e := range g.edges {
		g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
		g.incoming[e.To] = append(g.incoming[e.To], e.From)
	}
	return g
}

// Ecosystem returns the ecosystem shared by every source of the graph, or ""
// when the graph mixes ecosystems or none was recorded.
func (g *Graph) Ecosystem() deps.Ecosystem {
	if g == nil {
		return ""
	}
	return g.ecosystem
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.keys)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return len(g.edges)
}

// Empty reports whether the graph has no nodes.
func (g *Graph) Empty() bool { return g.NodeCount() == 0 }

// Keys returns the node keys in ascending order.
func (g *Graph) Keys() []deps.Key {
	if g == nil {
		return nil
	}
	return slices.Clone(g.keys)
}

// Node returns a copy of the node with key k.
func (g *Graph) Node(k deps.Key) (Node, bool) {
	if g == nil {
		return Node{}, false
	}
	n, ok := g.nodes[k]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Nodes returns copies of every node, ordered by key.
func (g *Graph) Nodes() []Node {
	if g == nil {
		return nil
	}
	out := make([]Node, len(g.keys))
	for i, k := range g.keys {
		out[i] = g.nodes[k].clone()
	}
	return out
}

// Edges returns every edge ordered by parent, then child.
func (g *Graph) Edges() []Edge {
	if g == nil {
		return nil
	}
	return slices.Clone(g.edges)
}

// Children returns the keys k depends on, in ascending order.
func (g *Graph) Children(k deps.Key) []deps.Key {
	if g == nil {
		return nil
	}
	return slices.Clone(g.outgoing[k])
}

// Parents returns the keys that depend on k, in ascending order.
func (g *Graph) Parents(k deps.Key) []deps.Key {
	if g == nil {
		return nil
	}
	return slices.Clone(g.incoming[k])
}

// Direct returns the direct dependencies ordered by key.
func (g *Graph) Direct() []Node {
	var out []Node
	for _, n := range g.Nodes() {
		if n.Direct {
			out = append(out, n)
		}
	}
	return out
}

// Roots returns nodes that nothing in the graph depends on.
func (g *Graph) Roots() []Node {
	var out []Node
	for _, n := range g.Nodes() {
		if len(g.incoming[n.Key()]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// HasEdge reports whether from depends on to.
func (g *Graph) HasEdge(from, to deps.Key) bool {
	if g == nil {
		return false
	}
	_, found := slices.BinarySearchFunc(g.outgoing[from], to, deps.CompareKeys)
	return found
}

func (n *Node) clone() Node {
	c := *n
	c.Provenance = slices.Clone(n.Provenance)
	return c
}
