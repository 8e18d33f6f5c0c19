// Package scan finds the metadata files of a project, parses them
// concurrently and merges the results into one dependency graph.
//
// A scan never stops at the first bad file. Files that cannot be decoded or
// parsed are reported as [FileFailure] values next to the merged graph of
// every file that succeeded:
//
//	s := scan.New(ecosystems.Registry, c, logger)
//	res, err := s.Scan(ctx, "./myproject", scan.Options{Concurrency: 8})
//	if err != nil {
//	    return err // walking the tree failed
//	}
//	for _, f := range res.Failures {
//	    logger.Warn("skipped", "path", f.Path, "err", f.Err)
//	}
//
// # Direct dependencies
//
// Manifests that only declare names (package.json, Cargo.toml, Gemfile)
// mark the matching nodes of lock files in the same directory and
// ecosystem as direct. Without such a lock file the declared names become
// version-less direct nodes of their own.
//
// # Caching
//
// Per-file graphs are cached by format and the BLAKE3 hash of the decoded
// text, so an unchanged lock file is parsed once across scans.
package scan
