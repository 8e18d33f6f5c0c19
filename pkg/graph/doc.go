// Package graph assembles dependency records into graphs and merges graphs
// from many sources into one.
//
// # Building
//
// [Build] consumes the records of one metadata file, in order, together with
// the relation hints the format provides:
//
//	g := graph.Build(records, hints, graph.BuildOptions{
//	    Ecosystem: deps.Debian,
//	    Source:    graph.Source{Path: "var/lib/dpkg/status", Format: "dpkg-status"},
//	})
//
// Without hints the result is a set of isolated nodes. A relation naming a
// package no record produced inserts a placeholder node, so relations are
// never silently dropped. [FromParser] runs parse, normalize and build in
// one step.
//
// # Merging
//
// [Merge] unifies nodes by key (ecosystem, name, version, classifier). It
// never drops information: Direct is or-ed, provenance and edges are
// unioned. Packages that differ only in version or classifier stay distinct
// nodes. Merge is commutative, associative and idempotent, so results from
// concurrently parsed files may be folded in any order; [MergeAll] does
// exactly that in parallel.
//
// # Immutability
//
// A [Graph] never changes after it is built. Accessors return copies, and
// every graph may be shared freely between goroutines.
//
// # Serialization
//
// [Document] is the wire format used for files, the HTTP API, the cache and
// stored snapshots. It encodes to JSON, YAML, MessagePack and BSON:
//
//	{
//	  "ecosystem": "debian",
//	  "nodes": [{"id": "debian:curl@7.68.0[amd64]", "ecosystem": "debian", "name": "curl", ...}],
//	  "edges": []
//	}
package graph
