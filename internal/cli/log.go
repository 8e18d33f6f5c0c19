// Package cli implements the depscan command-line interface.
//
// The commands wrap the library packages: parse and scan build dependency
// graphs from metadata files, merge and inspect work on saved graph
// documents, history and show read stored snapshots, and serve exposes the
// same operations over HTTP. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - parse: Parse one metadata file into records or a graph
//   - scan: Walk a project tree and build its merged dependency graph
//   - merge: Merge graph documents
//   - inspect: Browse a graph interactively
//   - history, show: List and read stored scan snapshots
//   - serve: Run the HTTP API
//   - cache: Manage the parse cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so the scan pipeline and commands share one.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the logger shared by all commands. Diagnostics go to w
// (stderr in the binary) so stdout stays clean for graph output piped to
// other tools.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "depscan",
		Level:           level,
	})
}

// step times one stage of a command, such as a merge, and logs it with its
// elapsed time when the stage ends.
type step struct {
	logger *log.Logger
	name   string
	start  time.Time
}

func startStep(l *log.Logger, name string) *step {
	l.Debug(name + " started")
	return &step{logger: l, name: name, start: time.Now()}
}

// done logs the stage at info level with keyvals and the elapsed time.
func (s *step) done(keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(s.start).Round(time.Millisecond))
	s.logger.Info(s.name, keyvals...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the command logger, or log.Default when ctx
// carries none (library calls in tests).
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
