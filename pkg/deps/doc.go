// Package deps defines the ecosystem-agnostic contracts for extracting
// dependency records from package metadata files.
//
// # Overview
//
// Every supported ecosystem contributes one or more [FormatParser]
// implementations. A parser turns the full text of a metadata file into
// native entries in input order, and lifts each entry to a canonical
// [Record]:
//
//	text  ──Parse──▶  []NativeEntry  ──Normalize──▶  []Record
//
// Parsers are pure functions of their input. They perform no I/O, hold no
// mutable state and never log, so one parser value can serve any number of
// goroutines.
//
// # Identity
//
// A record's [Key] (ecosystem, name, version, classifier) is its identity:
// two records denote the same package exactly when their keys are equal.
// Where a package came from ([Record.Locator]) is carried along but does not
// take part in identity.
//
// # Structure Hints
//
// Formats that describe relations between packages (lock files) implement
// [Linker] in addition to [FormatParser]. Manifests that only declare names
// implement [Declarer]; their names mark lock-file records as direct.
//
// # Dispatch
//
// A [Registry] resolves a tag to a parser. The tag may be an ecosystem name
// ("debian"), a format name ("poetry.lock") or an alias ("dpkg", "composer"):
//
//	entries, err := deps.Parse(ecosystems.Registry, "debian", text)
//	if err != nil {
//	    // *errors.ParseFailure, recoverable
//	}
//	for _, e := range entries {
//	    rec := deps.Normalize(ecosystems.Registry, "debian", e)
//	    fmt.Println(rec.Key())
//	}
//
// The ecosystem subpackages (debian, alpine, python, rust, golang,
// javascript, ruby, php, java) each export a [Language]; the ecosystems
// package collects them into a ready-made registry.
package deps
