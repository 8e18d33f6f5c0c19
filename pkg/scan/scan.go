package scan

import (
	"context"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/depscan/pkg/cache"
	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/graph"
	"github.com/matzehuels/depscan/pkg/observability"
)

// DefaultMaxFileSize is the largest file a scan reads when Options leaves
// MaxFileSize at zero.
const DefaultMaxFileSize int64 = 32 << 20

// Options configures a single scan.
type Options struct {
	// Ignore lists doublestar globs of project-relative paths to skip.
	// Nil selects DefaultIgnore; an empty non-nil slice skips nothing.
	Ignore []string
	// Direct flags matching nodes of the merged graph as direct.
	Direct []graph.Selector
	// Concurrency bounds the files parsed at once (default GOMAXPROCS).
	Concurrency int
	// MaxFileSize rejects larger files (0 = DefaultMaxFileSize, <0 = no limit).
	MaxFileSize int64
	// Refresh skips cache reads. Fresh results are still written back.
	Refresh bool
	// Progress, if set, is called after each file with the number of files
	// finished so far. Calls may come from several goroutines.
	Progress func(done, total int)
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) maxFileSize() int64 {
	if o.MaxFileSize == 0 {
		return DefaultMaxFileSize
	}
	return o.MaxFileSize
}

// FileResult reports what happened to one discovered file.
type FileResult struct {
	Path      string         `json:"path"`
	Format    string         `json:"format"`
	Ecosystem deps.Ecosystem `json:"ecosystem"`
	Declarer  bool           `json:"declarer,omitempty"`
	Nodes     int            `json:"nodes"`
	Cached    bool           `json:"cached,omitempty"`
	Err       error          `json:"-"`
}

// Result is the outcome of a scan.
type Result struct {
	Root     string
	Graph    *graph.Graph
	Files    []FileResult
	Failures []*FileFailure
	Duration time.Duration
}

// AllFailed reports whether files were found and none of them parsed.
func (r *Result) AllFailed() bool {
	return len(r.Files) > 0 && len(r.Failures) == len(r.Files)
}

// Scanner runs scans. It holds no per-scan state, so one Scanner may run
// any number of scans concurrently.
type Scanner struct {
	Registry *deps.Registry
	Graphs   cache.Graphs
	Logger   *log.Logger
}

// New creates a scanner. A nil cache disables caching and a nil logger
// selects the default logger.
func New(reg *deps.Registry, c cache.Cache, logger *log.Logger) *Scanner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{
		Registry: reg,
		Graphs:   cache.Graphs{Cache: c, TTL: cache.DefaultTTL},
		Logger:   logger,
	}
}

// outcome is the per-file result before declared names are applied.
type outcome struct {
	graph  *graph.Graph
	names  []string
	cached bool
	err    error
}

// Scan discovers the metadata files under root, parses them concurrently
// and merges the results. The returned error covers only failures of the
// walk itself and context cancellation; per-file failures are collected in
// the result.
func (s *Scanner) Scan(ctx context.Context, root string, opts Options) (*Result, error) {
	start := time.Now()
	observability.Scan().OnScanStart(ctx, root)

	files, err := Discover(root, s.Registry, opts.Ignore)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "walk %s", root)
	}
	s.Logger.Debug("discovered files", "root", root, "count", len(files))

	outcomes := make([]outcome, len(files))
	var finished atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency())
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = s.processFile(gctx, f, opts)
			if opts.Progress != nil {
				opts.Progress(int(finished.Add(1)), len(files))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Root: root}
	res.Graph = s.assemble(files, outcomes)
	if len(opts.Direct) > 0 {
		res.Graph = graph.WithDirect(res.Graph, opts.Direct...)
	}
	for i, f := range files {
		o := outcomes[i]
		fr := FileResult{
			Path:      f.Rel,
			Format:    f.Format(),
			Ecosystem: f.Ecosystem(),
			Declarer:  f.Declarer != nil,
			Nodes:     o.graph.NodeCount() + len(o.names),
			Cached:    o.cached,
			Err:       o.err,
		}
		res.Files = append(res.Files, fr)
		if o.err != nil {
			failure := &FileFailure{Path: f.Rel, Format: fr.Format, Ecosystem: fr.Ecosystem, Err: o.err}
			res.Failures = append(res.Failures, failure)
			s.Logger.Warn("skipped file", "path", f.Rel, "format", fr.Format, "err", o.err)
		}
	}
	res.Duration = time.Since(start)

	s.Logger.Info("scan complete",
		"files", len(files),
		"failures", len(res.Failures),
		"nodes", res.Graph.NodeCount(),
		"edges", res.Graph.EdgeCount(),
		"duration", res.Duration)
	observability.Scan().OnScanComplete(ctx, root, len(files), len(res.Failures), res.Duration)
	return res, nil
}

func (s *Scanner) processFile(ctx context.Context, f File, opts Options) outcome {
	start := time.Now()
	observability.Scan().OnFileStart(ctx, f.Rel, f.Format())

	o := s.readAndParse(ctx, f, opts)

	observability.Scan().OnFileComplete(ctx, f.Rel, f.Format(), o.graph.NodeCount()+len(o.names), time.Since(start), o.err)
	if o.err == nil {
		s.Logger.Debug("parsed file", "path", f.Rel, "format", f.Format(), "cached", o.cached)
	}
	return o
}

func (s *Scanner) readAndParse(ctx context.Context, f File, opts Options) outcome {
	if limit := opts.maxFileSize(); limit > 0 && f.Size > limit {
		return outcome{err: errors.New(errors.ErrCodeInvalidInput,
			"file is %d bytes, larger than the %d byte limit", f.Size, limit)}
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return outcome{err: err}
	}
	if f.Declarer != nil {
		text, err := Decode(data)
		if err != nil {
			return outcome{err: err}
		}
		names, err := f.Declarer.Declare(text)
		return outcome{names: names, err: err}
	}
	g, cached, err := s.ParseBytes(ctx, f.Parser, graph.Source{Path: f.Rel, Format: f.Format()}, data, opts.Refresh)
	return outcome{graph: g, cached: cached, err: err}
}

// ParseBytes decodes data and builds the graph p produces from it, going
// through the cache. The source is recorded as every node's provenance and
// is part of the cache key.
func (s *Scanner) ParseBytes(ctx context.Context, p deps.FormatParser, source graph.Source, data []byte, refresh bool) (*graph.Graph, bool, error) {
	text, err := Decode(data)
	if err != nil {
		return nil, false, err
	}
	key := cache.GraphKey(p.Format(), cache.Hash([]byte(source.Path+"\x00"+text)))
	if !refresh {
		if g, ok := s.Graphs.Get(ctx, key); ok {
			return g, true, nil
		}
	}
	g, err := graph.FromParser(p, text, graph.BuildOptions{Source: source})
	if err != nil {
		return nil, false, err
	}
	if err := s.Graphs.Put(ctx, key, g); err != nil {
		s.Logger.Debug("cache write failed", "key", key, "err", err)
	}
	return g, false, nil
}

type dirEco struct {
	dir string
	eco deps.Ecosystem
}

// assemble applies declared names to the lock-file graphs of the same
// directory and ecosystem and merges everything. Declarers without such a
// lock file contribute version-less direct nodes.
func (s *Scanner) assemble(files []File, outcomes []outcome) *graph.Graph {
	declared := make(map[dirEco][]graph.Selector)
	for i, f := range files {
		if f.Declarer == nil || outcomes[i].err != nil {
			continue
		}
		k := dirEco{f.Dir(), f.Ecosystem()}
		for _, name := range outcomes[i].names {
			declared[k] = append(declared[k], graph.Selector{Ecosystem: k.eco, Name: name})
		}
	}

	locked := make(map[dirEco]bool)
	var graphs []*graph.Graph
	for i, f := range files {
		o := outcomes[i]
		if f.Parser == nil || o.err != nil {
			continue
		}
		k := dirEco{f.Dir(), f.Ecosystem()}
		locked[k] = true
		graphs = append(graphs, graph.WithDirect(o.graph, declared[k]...))
	}
	for i, f := range files {
		o := outcomes[i]
		if f.Declarer == nil || o.err != nil || locked[dirEco{f.Dir(), f.Ecosystem()}] {
			continue
		}
		source := graph.Source{Path: f.Rel, Format: f.Format()}
		graphs = append(graphs, graph.FromDeclared(f.Ecosystem(), o.names, source))
	}
	return graph.MergeAll(graphs...)
}
