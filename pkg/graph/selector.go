package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/depscan/pkg/deps"
)

// Selector matches node keys by ecosystem, name and optionally version. It
// is written "ecosystem:name[@version]"; a leading "@" in the name (npm
// scopes) is part of the name.
type Selector struct {
	Ecosystem deps.Ecosystem
	Name      string
	Version   string
}

// ParseSelector parses the "ecosystem:name[@version]" form.
func ParseSelector(s string) (Selector, error) {
	ecoName, rest, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || rest == "" {
		return Selector{}, fmt.Errorf("invalid selector %q: want ecosystem:name[@version]", s)
	}
	eco, err := deps.ParseEcosystem(ecoName)
	if err != nil {
		return Selector{}, fmt.Errorf("invalid selector %q: %w", s, err)
	}
	sel := Selector{Ecosystem: eco, Name: rest}
	if i := strings.LastIndexByte(rest, '@'); i > 0 {
		sel.Name, sel.Version = rest[:i], rest[i+1:]
	}
	if sel.Name == "" {
		return Selector{}, fmt.Errorf("invalid selector %q: empty name", s)
	}
	return sel, nil
}

// ParseSelectors parses every element of ss.
func ParseSelectors(ss []string) ([]Selector, error) {
	out := make([]Selector, 0, len(ss))
	for _, s := range ss {
		sel, err := ParseSelector(s)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, nil
}

// Matches reports whether k is selected. Names compare exactly; an empty
// selector version matches any version.
func (s Selector) Matches(k deps.Key) bool {
	return k.Ecosystem == s.Ecosystem && k.Name == s.Name &&
		(s.Version == "" || k.Version == s.Version)
}

func (s Selector) String() string {
	if s.Version == "" {
		return string(s.Ecosystem) + ":" + s.Name
	}
	return string(s.Ecosystem) + ":" + s.Name + "@" + s.Version
}

// WithDirect returns a copy of g in which every node matched by one of the
// selectors is direct. g itself is unchanged; with no matches g is returned.
func WithDirect(g *Graph, selectors ...Selector) *Graph {
	match := func(k deps.Key) bool {
		return slices.ContainsFunc(selectors, func(s Selector) bool { return s.Matches(k) })
	}
	if !slices.ContainsFunc(g.Keys(), func(k deps.Key) bool { return match(k) && !g.nodes[k].Direct }) {
		return g
	}
	nodes := make(map[deps.Key]*Node, len(g.nodes))
	for k, n := range g.nodes {
		c := n.clone()
		if match(k) {
			c.Direct = true
		}
		nodes[k] = &c
	}
	edges := make(map[Edge]struct{}, len(g.edges))
	for _, e := range g.edges {
		edges[e] = struct{}{}
	}
	return newGraph(g.ecosystem, nodes, edges)
}
