// Package java parses Maven project files (pom.xml).
//
// A POM declares dependencies rather than locking them, so every record it
// yields is a direct dependency with no relations between them. Versions are
// taken from the dependency itself or from <dependencyManagement>, after
// substituting ${...} references to <properties> and the project coordinates.
// Dependencies in test or provided scope and optional dependencies are
// skipped.
package java
