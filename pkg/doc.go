// Package pkg provides the core libraries of depscan, an offline dependency
// inventory for project trees and system images.
//
// # Overview
//
// depscan reads the metadata files that package managers leave behind (lock
// files, manifests and installed-package databases), normalizes every entry
// into a [deps.Record] and merges the records of many files into one
// dependency graph. Nothing is fetched from the network: the graph describes
// exactly what the files on disk say.
//
// # Architecture
//
// The typical data flow:
//
//	Project tree / single file
//	         ↓
//	    [scan] package (walk, detect formats, parse concurrently)
//	         ↓
//	    [deps] packages (format parsers per ecosystem)
//	         ↓
//	    [graph] package (build, merge, mark direct dependencies)
//	         ↓
//	    JSON/YAML/MessagePack/BSON, DOT or SVG ([render]), snapshots ([storage])
//
// # Quick Start
//
// Scan a directory and print what was found:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/depscan/pkg/cache"
//	    "github.com/matzehuels/depscan/pkg/deps/ecosystems"
//	    "github.com/matzehuels/depscan/pkg/graph"
//	    "github.com/matzehuels/depscan/pkg/scan"
//	)
//
//	s := scan.New(ecosystems.Registry, cache.NewNullCache(), nil)
//	res, _ := s.Scan(context.Background(), "./service", scan.Options{})
//
//	sum := graph.Summarize(res.Graph)
//	fmt.Println(sum.Nodes, "packages in", len(res.Files), "files")
//
// # Main Packages
//
// ## Parsing
//
// [deps] - Records, keys, the format parser contract and the [deps.Registry]
// that maps file patterns, ecosystem names and aliases to parsers. One
// subpackage per ecosystem (debian, alpine, python, javascript, ruby, rust,
// golang, php, java). [ecosystems] wires them all into one registry.
//
// [textscan] - Line and cursor helpers shared by the hand-written parsers of
// line-oriented formats (dpkg status, apk installed, requirements.txt,
// Gemfile.lock).
//
// ## Graphs
//
// [graph] - The dependency graph: building from records, associative merging
// with provenance, direct-dependency selectors, summaries and the
// serializable [graph.Document] form.
//
// [render] - Graphviz DOT and in-process SVG rendering.
//
// ## Infrastructure
//
// [scan] - Project scanning with bounded concurrency, per-file failure
// isolation, cached parse results and a watch mode.
//
// [cache] - Parse result caching with file, Redis and null backends.
//
// [storage] - Scan snapshots in SQLite (default) or MongoDB.
//
// [config] - The .depscan.yaml project file.
//
// [observability] - Hooks for scan, cache and HTTP events, with a Prometheus
// implementation.
//
// [errors] - Coded errors and the structured parse failure types.
//
// # Testing
//
// Run tests:
//
//	go test ./...                  # All tests
//	go test ./pkg/deps/...         # Parsers only
//	go test -run Example ./pkg/... # Examples only
//
// [deps]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/deps
// [deps.Record]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/deps#Record
// [deps.Registry]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/deps#Registry
// [ecosystems]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/deps/ecosystems
// [textscan]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/deps/textscan
// [graph]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/graph
// [graph.Document]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/graph#Document
// [render]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/render
// [scan]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/scan
// [cache]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/cache
// [storage]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/storage
// [config]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/depscan/pkg/errors
package pkg
