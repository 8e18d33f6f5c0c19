// Package rust parses Cargo metadata.
//
// Cargo.lock holds every crate of the resolved build. Crates without a
// source are the workspace's own members: they produce no records, and the
// crates they depend on are the project's direct dependencies.
//
// Cargo.toml is read by [CargoToml] only for the names it declares.
package rust
