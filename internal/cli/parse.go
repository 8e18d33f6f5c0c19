package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/deps/ecosystems"
	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/graph"
	"github.com/matzehuels/depscan/pkg/scan"
)

// parseOpts holds the command-line flags for the parse command.
type parseOpts struct {
	graph    bool     // build a graph instead of listing records
	format   string   // output format
	output   string   // output file path (stdout if empty)
	direct   []string // extra direct-dependency selectors
	detailed bool     // detailed DOT/SVG labels
	refresh  bool     // bypass cache
	noCache  bool     // disable cache
}

// parseCommand creates the parse command.
func (c *CLI) parseCommand() *cobra.Command {
	var opts parseOpts

	cmd := &cobra.Command{
		Use:   "parse [format] <file>",
		Short: "Parse one metadata file into records or a dependency graph",
		Long: `Parse one metadata file into dependency records or, with --graph, a
dependency graph.

The format is detected from the file path unless given explicitly. It may be
a format name (dpkg-status, poetry.lock), an ecosystem (selecting its default
format) or a file name alias. Use "-" to read from stdin.`,
		Example: `  depscan parse /var/lib/dpkg/status
  depscan parse poetry.lock --graph -f dot
  cat Gemfile.lock | depscan parse ruby -`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeFormats,
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, file := "", args[0]
			if len(args) == 2 {
				tag, file = args[0], args[1]
			}
			return c.runParse(cmd.Context(), tag, file, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.graph, "graph", "g", false, "build a dependency graph")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: table, json, yaml (records); json, yaml, msgpack, bson, dot, svg, table (graph)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringSliceVar(&opts.direct, "direct", nil, "mark packages as direct (ecosystem:name[@version])")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show classifier and sources in dot/svg labels")
	_ = cmd.RegisterFlagCompletionFunc("format", completeGraphFormats)
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the parse cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the parse cache")

	return cmd
}

// parseTarget is what a parse tag or path resolves to: a parser, or a
// declarer for manifests that only name direct dependencies.
type parseTarget struct {
	parser   deps.FormatParser
	declarer deps.Declarer
}

func (t parseTarget) format() string {
	if t.parser != nil {
		return t.parser.Format()
	}
	return t.declarer.Format()
}

func (t parseTarget) ecosystem() deps.Ecosystem {
	if t.parser != nil {
		return t.parser.Ecosystem()
	}
	return t.declarer.Ecosystem()
}

// resolveTarget resolves an explicit tag, or detects the format from file.
func resolveTarget(reg *deps.Registry, tag, file string) (parseTarget, error) {
	if tag != "" {
		p, err := reg.Lookup(tag)
		if err == nil {
			return parseTarget{parser: p}, nil
		}
		if d, ok := reg.LookupDeclarer(tag); ok {
			return parseTarget{declarer: d}, nil
		}
		return parseTarget{}, err
	}
	if file == "-" {
		return parseTarget{}, errors.New(errors.ErrCodeInvalidFormat, "reading stdin requires an explicit format")
	}
	rel := filepath.ToSlash(file)
	if p, ok := reg.Detect(rel); ok {
		return parseTarget{parser: p}, nil
	}
	if d, ok := reg.DetectDeclarer(rel); ok {
		return parseTarget{declarer: d}, nil
	}
	return parseTarget{}, errors.New(errors.ErrCodeInvalidFormat,
		"cannot detect the format of %s; pass it as the first argument (see 'depscan formats')", file)
}

func readInput(file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", file)
	}
	return data, nil
}

func (c *CLI) runParse(ctx context.Context, tag, file string, opts parseOpts) error {
	logger := loggerFromContext(ctx)

	target, err := resolveTarget(ecosystems.Registry, tag, file)
	if err != nil {
		return err
	}
	selectors, err := graph.ParseSelectors(opts.direct)
	if err != nil {
		return err
	}
	data, err := readInput(file)
	if err != nil {
		return err
	}
	fail := func(err error) error {
		return &scan.FileFailure{Path: file, Format: target.format(), Ecosystem: target.ecosystem(), Err: err}
	}
	logger.Debug("parsing", "file", file, "format", target.format())

	source := graph.Source{Path: file, Format: target.format()}
	if file == "-" {
		source.Path = ""
	}

	var g *graph.Graph
	var records []deps.Record
	cached := false
	switch {
	case target.declarer != nil:
		text, err := scan.Decode(data)
		if err != nil {
			return fail(err)
		}
		names, err := target.declarer.Declare(text)
		if err != nil {
			return fail(err)
		}
		g = graph.FromDeclared(target.ecosystem(), names, source)
		for _, n := range g.Nodes() {
			records = append(records, n.Record)
		}
	case opts.graph:
		cfg, err := c.loadConfig(filepath.Dir(file))
		if err != nil {
			return err
		}
		s, cc, err := c.newScanner(cfg, opts.noCache)
		if err != nil {
			return err
		}
		defer cc.Close()
		g, cached, err = s.ParseBytes(ctx, target.parser, source, data, opts.refresh)
		if err != nil {
			return fail(err)
		}
	default:
		text, err := scan.Decode(data)
		if err != nil {
			return fail(err)
		}
		entries, err := target.parser.Parse(text)
		if err != nil {
			return fail(err)
		}
		records = deps.NormalizeAll(target.parser, entries)
	}

	if !opts.graph {
		format := opts.format
		switch {
		case format != "":
		case opts.output == "" || opts.output == "-":
			format = formatTable
		default:
			format = formatFromPath(opts.output)
		}
		if err := checkFormat(format, recordFormats); err != nil {
			return err
		}
		if opts.output == "" || opts.output == "-" {
			return writeRecords(os.Stdout, records, format)
		}
		var buf bytes.Buffer
		if err := writeRecords(&buf, records, format); err != nil {
			return err
		}
		if err := writeOutput(opts.output, buf.Bytes()); err != nil {
			return err
		}
		printSuccess("Parsed %d records from %s", len(records), file)
		printFile(opts.output)
		return nil
	}

	g = graph.WithDirect(g, selectors...)
	format := opts.format
	if format == "" {
		format = formatFromPath(opts.output)
	}
	if err := writeGraphTo(ctx, g, opts.output, format, opts.detailed); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Parsed %s", file)
		printStats(g.NodeCount(), g.EdgeCount(), cached)
		printFile(opts.output)
	}
	return nil
}
