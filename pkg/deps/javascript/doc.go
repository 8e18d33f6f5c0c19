// Package javascript parses npm and pnpm metadata.
//
// package-lock.json (lockfileVersion 2 and 3) lists every installed package
// under its node_modules path. Dependency edges are recovered the way Node
// resolves modules: from a package's own nested node_modules directory
// outward to the project root. Version 1 lock files predate the packages map
// and are rejected with a recoverable failure.
//
// pnpm-lock.yaml is read in its v5, v6 and v9 layouts. The packages named by
// the root importer are the direct dependencies.
//
// package.json is read by [PackageJSON] only for the names it declares.
package javascript
