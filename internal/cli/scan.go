package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depscan/pkg/config"
	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/graph"
	"github.com/matzehuels/depscan/pkg/scan"
	"github.com/matzehuels/depscan/pkg/storage"
)

// scanOpts holds the command-line flags for the scan command.
type scanOpts struct {
	output      string
	format      string
	direct      []string
	ignore      []string
	concurrency int
	maxFileSize int64
	refresh     bool
	noCache     bool
	save        bool
	project     string
	watch       bool
	debounce    time.Duration
}

// scanCommand creates the scan command.
func (c *CLI) scanCommand() *cobra.Command {
	var opts scanOpts

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan a project tree and build its dependency graph",
		Long: `Scan walks a directory, detects lock files, manifests and installed-package
databases of every supported ecosystem, parses them concurrently and merges
the results into one dependency graph.

Files that fail to parse are reported and skipped. The command fails only
when every file found failed.`,
		Example: `  depscan scan
  depscan scan ./service -o graph.json --save
  depscan scan --direct python:requests --ignore "testdata/**"
  depscan scan --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return c.runScan(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the graph to a file (- for stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "graph format: json, yaml, msgpack, bson, dot, svg, table (default from --output extension)")
	cmd.Flags().StringSliceVar(&opts.direct, "direct", nil, "mark packages as direct (ecosystem:name[@version])")
	cmd.Flags().StringSliceVar(&opts.ignore, "ignore", nil, "additional paths to skip (doublestar globs)")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "files parsed at once (default: number of CPUs)")
	cmd.Flags().Int64Var(&opts.maxFileSize, "max-file-size", 0, "skip files larger than this many bytes (default 32MiB)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeGraphFormats)
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the parse cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the parse cache")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the result as a snapshot")
	cmd.Flags().StringVar(&opts.project, "project", "", "project name for snapshots (default: config or directory name)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "scan again whenever a metadata file changes")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", scan.DefaultDebounce, "wait this long for changes to settle in --watch mode")

	return cmd
}

// scanOptions merges config file values with flags. Flags win.
func (o scanOpts) scanOptions(cmd *cobra.Command, cfg config.Config) (scan.Options, error) {
	sopts, err := cfg.ScanOptions()
	if err != nil {
		return scan.Options{}, err
	}
	sopts.Ignore = slices.Concat(sopts.Ignore, o.ignore)
	extra, err := graph.ParseSelectors(o.direct)
	if err != nil {
		return scan.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "--direct")
	}
	sopts.Direct = append(sopts.Direct, extra...)
	if cmd.Flags().Changed("concurrency") {
		sopts.Concurrency = o.concurrency
	}
	if cmd.Flags().Changed("max-file-size") {
		sopts.MaxFileSize = o.maxFileSize
	}
	sopts.Refresh = o.refresh
	return sopts, nil
}

func (c *CLI) runScan(cmd *cobra.Command, root string, opts scanOpts) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig(root)
	if err != nil {
		return err
	}
	sopts, err := opts.scanOptions(cmd, cfg)
	if err != nil {
		return err
	}
	if opts.project == "" {
		opts.project = projectName(cfg, root)
	} else if err := errors.ValidatePackageName(opts.project); err != nil {
		return err
	}
	if opts.format == "" && opts.output != "" {
		opts.format = formatFromPath(opts.output)
	}
	if opts.format != "" {
		if err := checkFormat(opts.format, graphFormats); err != nil {
			return err
		}
	}

	s, cc, err := c.newScanner(cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer cc.Close()

	var store storage.Store
	if opts.save {
		if store, err = openStore(ctx, cfg); err != nil {
			return err
		}
		defer store.Close()
	}

	if opts.watch {
		printInfo("Watching %s (Ctrl+C to stop)", root)
		return s.Watch(ctx, root, sopts, opts.debounce, func(res *scan.Result, err error) {
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return
			}
			if err := c.finishScan(ctx, res, store, opts); err != nil {
				printError("%v", err)
			}
		})
	}

	var res *scan.Result
	if opts.output == "-" {
		res, err = s.Scan(ctx, root, sopts)
	} else {
		spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Scanning %s...", root))
		sopts.Progress = spinner.Progress
		spinner.Start()
		res, err = s.Scan(ctx, root, sopts)
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	if err := c.finishScan(ctx, res, store, opts); err != nil {
		return err
	}
	if res.AllFailed() {
		return errors.New(errors.ErrCodeParseFailure, "all %d metadata files failed to parse", len(res.Files))
	}
	return nil
}

// finishScan reports res, writes the graph and saves the snapshot.
func (c *CLI) finishScan(ctx context.Context, res *scan.Result, store storage.Store, opts scanOpts) error {
	if opts.output == "-" {
		loggerFromContext(ctx).Info("scan complete", "files", len(res.Files), "failures", len(res.Failures))
		return writeGraphTo(ctx, res.Graph, "", opts.format, false)
	}

	printScanResult(res)

	if opts.output != "" {
		if err := writeGraphTo(ctx, res.Graph, opts.output, opts.format, false); err != nil {
			return err
		}
		printFile(opts.output)
	} else if opts.format != "" {
		if err := writeGraphTo(ctx, res.Graph, "", opts.format, false); err != nil {
			return err
		}
	}

	if store != nil {
		root, err := filepath.Abs(res.Root)
		if err != nil {
			root = res.Root
		}
		snap := storage.NewSnapshot(opts.project, root, res.Graph, len(res.Failures))
		if err := store.Save(ctx, snap); err != nil {
			return err
		}
		printKeyValue("Snapshot", snap.ID)
		printNextStep("Show it later", "depscan show "+snap.ID)
	} else if opts.output == "" && !opts.watch {
		printNextStep("Save the graph", "depscan scan -o graph.json")
	}
	return nil
}

func printScanResult(res *scan.Result) {
	if len(res.Files) == 0 {
		printWarning("No metadata files found in %s", res.Root)
		return
	}

	allCached := true
	for _, f := range res.Files {
		if f.Err == nil && !f.Declarer && !f.Cached {
			allCached = false
		}
	}
	printSuccess("Scanned %d files in %s", len(res.Files), res.Duration.Round(time.Millisecond))
	printStats(res.Graph.NodeCount(), res.Graph.EdgeCount(), allCached)

	summary := graph.Summarize(res.Graph)
	if summary.Nodes > 0 {
		printBlock(summaryTable(summary))
		printKeyValue("Direct", fmt.Sprintf("%d", summary.Direct))
	}
	for _, mv := range summary.MultiVersion {
		printDetail("%s:%s in %d versions: %s", mv.Ecosystem, mv.Name, len(mv.Versions), strings.Join(mv.Versions, ", "))
	}

	if len(res.Failures) > 0 {
		printNewline()
		printWarning("Skipped %d of %d files", len(res.Failures), len(res.Files))
		for _, f := range res.Failures {
			printFailure(f)
		}
	}
}
