package scan

import (
	"fmt"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
)

// FileFailure annotates the failure of one file with where it happened.
type FileFailure struct {
	Path      string         // project-relative, slash-separated
	Format    string         // format selected for the file
	Ecosystem deps.Ecosystem // ecosystem of the format
	Err       error          // usually a ParseFailure or MalformedInputFailure
}

func (f *FileFailure) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.Path, f.Ecosystem, f.Err)
}

func (f *FileFailure) Unwrap() error { return f.Err }

// Recoverable reports whether the scan could continue past the failure.
// Decode and grammar failures are; I/O errors are not.
func (f *FileFailure) Recoverable() bool { return errors.IsRecoverable(f.Err) }
