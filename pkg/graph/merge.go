package graph

import (
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/depscan/pkg/deps"
)

// Merge combines two graphs into a new one. Nodes with equal keys are
// unified: Direct is or-ed, provenance is unioned, a node stays a
// placeholder only if it is one in both graphs and the smallest non-empty
// locator wins. Edges are unioned. The ecosystem tag survives only when both
// graphs carry the same tag.
//
// Merge is commutative, associative and idempotent, and a nil graph is its
// identity. Neither input is modified.
func Merge(a, b *Graph) *Graph {
	switch {
	case a == nil && b == nil:
		return newGraph("", map[deps.Key]*Node{}, map[Edge]struct{}{})
	case a == nil:
		return b
	case b == nil:
		return a
	}

	nodes := make(map[deps.Key]*Node, len(a.nodes)+len(b.nodes))
	for k, n := range a.nodes {
		c := n.clone()
		nodes[k] = &c
	}
	for k, n := range b.nodes {
		if have, ok := nodes[k]; ok {
			mergeNode(have, n)
			continue
		}
		c := n.clone()
		nodes[k] = &c
	}

	edges := make(map[Edge]struct{}, len(a.edges)+len(b.edges))
	for _, e := range a.edges {
		edges[e] = struct{}{}
	}
	for _, e := range b.edges {
		edges[e] = struct{}{}
	}

	eco := a.ecosystem
	if eco != b.ecosystem {
		eco = ""
	}
	return newGraph(eco, nodes, edges)
}

func mergeNode(dst, src *Node) {
	dst.Direct = dst.Direct || src.Direct
	dst.Placeholder = dst.Placeholder && src.Placeholder
	dst.Locator = minLocator(dst.Locator, src.Locator)
	dst.Provenance = unionSources(dst.Provenance, src.Provenance)
}

func unionSources(a, b []Source) []Source {
	if len(b) == 0 {
		return a
	}
	out := slices.Concat(a, b)
	slices.SortFunc(out, compareSources)
	return slices.Compact(out)
}

// MergeAll folds graphs into one by merging pairs in parallel, level by
// level. Because Merge is associative and commutative the result equals a
// sequential left fold. MergeAll of no graphs is the empty graph.
func MergeAll(graphs ...*Graph) *Graph {
	level := slices.Clone(graphs)
	if len(level) == 0 {
		return Merge(nil, nil)
	}
	for len(level) > 1 {
		next := make([]*Graph, (len(level)+1)/2)
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i := range next {
			left := level[2*i]
			if 2*i+1 == len(level) {
				next[i] = left
				continue
			}
			right := level[2*i+1]
			g.Go(func() error {
				next[i] = Merge(left, right)
				return nil
			})
		}
		_ = g.Wait()
		level = next
	}
	if level[0] == nil {
		return Merge(nil, nil)
	}
	return level[0]
}

// Equal reports whether two graphs hold the same ecosystem tag, nodes (with
// all attributes) and edges. A nil graph equals an empty untagged one.
func Equal(a, b *Graph) bool {
	if a.Ecosystem() != b.Ecosystem() || a.NodeCount() != b.NodeCount() || a.EdgeCount() != b.EdgeCount() {
		return false
	}
	if a.Empty() {
		return a.EdgeCount() == 0
	}
	for _, k := range a.keys {
		bn, ok := b.nodes[k]
		if !ok || !nodeEqual(a.nodes[k], bn) {
			return false
		}
	}
	return slices.Equal(a.edges, b.edges)
}

func nodeEqual(a, b *Node) bool {
	return a.Record == b.Record &&
		a.Direct == b.Direct &&
		a.Placeholder == b.Placeholder &&
		slices.Equal(a.Provenance, b.Provenance)
}
