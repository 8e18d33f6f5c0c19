package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depscan/internal/server"
	"github.com/matzehuels/depscan/pkg/observability"
	"github.com/matzehuels/depscan/pkg/storage"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		snapshots bool
		maxBody   int64
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parse and graph API over HTTP",
		Long: `Serve exposes parsing, graph building and merging over HTTP:

  GET  /healthz
  GET  /metrics
  GET  /v1/formats
  POST /v1/parse/{format}
  POST /v1/graph/{format}
  POST /v1/merge
  GET  /v1/snapshots            (with --snapshots)
  GET  /v1/snapshots/{id}       (with --snapshots)

The cache and snapshot store follow the configuration file of the working
directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(".")
			if err != nil {
				return err
			}
			s, cc, err := c.newScanner(cfg, noCache)
			if err != nil {
				return err
			}
			defer cc.Close()

			var store storage.Store
			if snapshots {
				if store, err = openStore(ctx, cfg); err != nil {
					return err
				}
				defer store.Close()
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := observability.NewMetrics(reg)
			observability.SetScanHooks(metrics)
			observability.SetCacheHooks(metrics)
			observability.SetHTTPHooks(metrics)
			defer observability.Reset()

			srv := server.New(s, c.Logger, server.Options{
				Store:       store,
				Gatherer:    reg,
				MaxBodySize: maxBody,
			})
			printInfo("Serving on %s", StyleLink.Render("http://"+addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "serve stored snapshots")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBodySize, "maximum request body in bytes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the parse cache")

	return cmd
}
