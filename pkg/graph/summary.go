package graph

import (
	"cmp"
	"slices"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/depscan/pkg/deps"
)

// Summary holds counts describing a graph.
type Summary struct {
	Nodes        int                    `json:"nodes" yaml:"nodes"`
	Edges        int                    `json:"edges" yaml:"edges"`
	Direct       int                    `json:"direct" yaml:"direct"`
	Placeholders int                    `json:"placeholders" yaml:"placeholders"`
	Sources      int                    `json:"sources" yaml:"sources"`
	ByEcosystem  map[deps.Ecosystem]int `json:"by_ecosystem" yaml:"by_ecosystem"`
	// MultiVersion lists packages present in more than one version.
	MultiVersion []MultiVersion `json:"multi_version,omitempty" yaml:"multi_version,omitempty"`
}

// MultiVersion names a package installed or locked in several versions.
type MultiVersion struct {
	Ecosystem deps.Ecosystem `json:"ecosystem" yaml:"ecosystem"`
	Name      string         `json:"name" yaml:"name"`
	Versions  []string       `json:"versions" yaml:"versions"` // ascending
}

// Summarize computes g's summary.
func Summarize(g *Graph) Summary {
	s := Summary{
		Nodes:       g.NodeCount(),
		Edges:       g.EdgeCount(),
		ByEcosystem: make(map[deps.Ecosystem]int),
	}

	type pkg struct {
		eco  deps.Ecosystem
		name string
	}
	versions := make(map[pkg][]string)
	sources := make(map[Source]bool)
	for _, n := range g.Nodes() {
		s.ByEcosystem[n.Ecosystem]++
		if n.Direct {
			s.Direct++
		}
		if n.Placeholder {
			s.Placeholders++
		}
		for _, src := range n.Provenance {
			sources[src] = true
		}
		if n.Version != "" {
			p := pkg{n.Ecosystem, n.Name}
			if !slices.Contains(versions[p], n.Version) {
				versions[p] = append(versions[p], n.Version)
			}
		}
	}
	s.Sources = len(sources)

	for p, vs := range versions {
		if len(vs) < 2 {
			continue
		}
		SortVersions(vs)
		s.MultiVersion = append(s.MultiVersion, MultiVersion{Ecosystem: p.eco, Name: p.name, Versions: vs})
	}
	slices.SortFunc(s.MultiVersion, func(a, b MultiVersion) int {
		return cmp.Or(cmp.Compare(a.Ecosystem, b.Ecosystem), cmp.Compare(a.Name, b.Name))
	})
	return s
}

// SortVersions orders versions ascending. Versions that parse as semantic
// versions are compared as such and sort before those that do not, which are
// compared as strings.
func SortVersions(vs []string) {
	parsed := make(map[string]*semver.Version, len(vs))
	for _, v := range vs {
		if sv, err := semver.NewVersion(v); err == nil {
			parsed[v] = sv
		}
	}
	slices.SortStableFunc(vs, func(a, b string) int {
		sa, sb := parsed[a], parsed[b]
		switch {
		case sa != nil && sb != nil:
			if c := sa.Compare(sb); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		case sa != nil:
			return -1
		case sb != nil:
			return 1
		}
		return cmp.Compare(a, b)
	})
}
