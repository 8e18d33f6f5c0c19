package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depscan/pkg/buildinfo"
	"github.com/matzehuels/depscan/pkg/cache"
	"github.com/matzehuels/depscan/pkg/config"
	"github.com/matzehuels/depscan/pkg/deps/ecosystems"
	"github.com/matzehuels/depscan/pkg/scan"
	"github.com/matzehuels/depscan/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "depscan"

	// defaultAddr is the listen address of "depscan serve".
	defaultAddr = "127.0.0.1:8080"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath overrides the .depscan.yaml lookup when set.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "depscan extracts dependency graphs from package metadata",
		Long: `depscan walks a project tree, detects the package ecosystems present and
reads their lock files, manifests and installed-package databases into one
dependency graph.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: nearest "+config.FileName+")")

	root.AddCommand(c.parseCommand())
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.mergeCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.formatsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads --config, or the nearest config file above dir. A missing
// file yields the zero Config.
func (c *CLI) loadConfig(dir string) (config.Config, error) {
	if c.configPath != "" {
		return config.Load(c.configPath)
	}
	cfg, path, err := config.LoadDir(dir)
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

// newScanner opens the configured cache and wraps it in a scanner. The
// caller closes the returned cache.
func (c *CLI) newScanner(cfg config.Config, noCache bool) (*scan.Scanner, cache.Cache, error) {
	cc, err := newCache(cfg, noCache)
	if err != nil {
		return nil, nil, err
	}
	s := scan.New(ecosystems.Registry, cc, c.Logger)
	s.Graphs.TTL = cfg.CacheTTL()
	return s, cc, nil
}

func newCache(cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	opts := cfg.CacheOptions()
	if opts.Backend == "" || opts.Backend == cache.BackendFile {
		if opts.Dir == "" {
			dir, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			opts.Dir = dir
		}
	}
	return cache.Open(opts)
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	return storage.Open(ctx, cfg.StoreOptions())
}

// projectName returns the configured project name or the base name of root.
func projectName(cfg config.Config, root string) string {
	if cfg.Project != "" {
		return cfg.Project
	}
	if abs, err := filepath.Abs(root); err == nil {
		return filepath.Base(abs)
	}
	return filepath.Base(root)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/depscan/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
