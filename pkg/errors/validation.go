package errors

import (
	"strings"
	"unicode"
)

// Input limits for names and paths that reach the CLI or the HTTP API.
const (
	maxNameLength = 256
	maxPathLength = 500
)

// hasControl reports whether s contains a control character, NUL included.
func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// ValidatePackageName checks a package or project name given on the
// command line or in a query string. Names end up in snapshot queries and
// output file names, so anything that could act as a path is rejected.
// Ecosystem naming rules are left to the format parsers.
func ValidatePackageName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidPackage, "name cannot be empty")
	case len(name) > maxNameLength:
		return New(ErrCodeInvalidPackage, "name too long (max %d characters)", maxNameLength)
	case hasControl(name):
		return New(ErrCodeInvalidPackage, "name contains control characters")
	}
	for _, bad := range []string{"..", "//", "\\"} {
		if strings.Contains(name, bad) {
			return New(ErrCodeInvalidPackage, "name contains invalid sequence %q", bad)
		}
	}
	return nil
}

// ValidateManifestFilename checks that filename is a bare metadata file
// name such as "poetry.lock". Hidden files are refused, except the project
// config.
func ValidateManifestFilename(filename string) error {
	switch {
	case filename == "":
		return New(ErrCodeInvalidManifest, "file name cannot be empty")
	case strings.ContainsAny(filename, `/\`):
		return New(ErrCodeInvalidManifest, "file name cannot contain path separators")
	case strings.HasPrefix(filename, ".") && filename != ".depscan.yaml":
		return New(ErrCodeInvalidManifest, "file name cannot be a hidden file")
	}
	return nil
}

// ValidatePath checks a slash-separated path relative to a project root,
// as recorded in graph provenance. Absolute paths, backslashes and ".."
// segments are refused so a path can never point outside the project.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return New(ErrCodeInvalidPath, "path cannot be empty")
	case len(path) > maxPathLength:
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	case hasControl(path):
		return New(ErrCodeInvalidPath, "path contains control characters")
	case strings.HasPrefix(path, "/"):
		return New(ErrCodeInvalidPath, "path must be relative")
	case strings.Contains(path, `\`):
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain %q segments", "..")
		}
	}
	return nil
}
