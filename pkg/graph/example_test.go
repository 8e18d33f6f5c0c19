package graph_test

import (
	"fmt"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/deps/debian"
	"github.com/matzehuels/depscan/pkg/graph"
)

func ExampleFromParser() {
	status := `Package: curl
Status: install ok installed
Architecture: amd64
Version: 7.68.0-1ubuntu2

Package: zlib1g
Architecture: amd64
Version: 1:1.2.11.dfsg-2ubuntu1
`
	g, err := graph.FromParser(debian.StatusFile{}, status, graph.BuildOptions{
		Source: graph.Source{Path: "var/lib/dpkg/status", Format: "dpkg-status"},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, n := range g.Nodes() {
		fmt.Println(n.Key(), n.Direct)
	}
	fmt.Println("edges:", g.EdgeCount())
	// Output:
	// debian:curl@7.68.0-1ubuntu2[amd64] false
	// debian:zlib1g@1:1.2.11.dfsg-2ubuntu1[amd64] false
	// edges: 0
}

func ExampleMerge() {
	k := deps.Key{Ecosystem: deps.Python, Name: "requests", Version: "2.31.0"}
	lock := graph.Build([]deps.Record{deps.RecordFromKey(k)}, deps.Hints{}, graph.BuildOptions{
		Source: graph.Source{Path: "poetry.lock", Format: "poetry.lock"},
	})
	reqs := graph.Build([]deps.Record{deps.RecordFromKey(k)}, deps.Hints{Direct: []deps.Key{k}}, graph.BuildOptions{
		Source: graph.Source{Path: "requirements.txt", Format: "requirements.txt"},
	})

	merged := graph.Merge(lock, reqs)
	n, _ := merged.Node(k)
	fmt.Println("direct:", n.Direct)
	for _, src := range n.Provenance {
		fmt.Println("source:", src)
	}
	// Output:
	// direct: true
	// source: poetry.lock (poetry.lock)
	// source: requirements.txt (requirements.txt)
}
