package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/depscan/pkg/graph"
)

// mergeCommand creates the merge command.
func (c *CLI) mergeCommand() *cobra.Command {
	var (
		output   string
		format   string
		direct   []string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "merge <graph>...",
		Short: "Merge graph documents into one graph",
		Long: `Merge reads graph documents written by "depscan scan -o" or "depscan parse
--graph -o" and merges them. Nodes with the same identity are combined: their
sources are united and a node is direct if any input marks it direct.

The input encoding follows the file extension (.json, .yaml, .msgpack, .bson).`,
		Example: `  depscan merge api.json worker.json -o all.json`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selectors, err := graph.ParseSelectors(direct)
			if err != nil {
				return err
			}
			graphs := make([]*graph.Graph, 0, len(args))
			for _, path := range args {
				g, err := readGraph(path)
				if err != nil {
					return err
				}
				graphs = append(graphs, g)
			}
			st := startStep(loggerFromContext(cmd.Context()), "merge")
			merged := graph.WithDirect(graph.MergeAll(graphs...), selectors...)
			st.done("graphs", len(graphs), "nodes", merged.NodeCount(), "edges", merged.EdgeCount())

			if format == "" {
				format = formatFromPath(output)
			}
			if err := writeGraphTo(cmd.Context(), merged, output, format, detailed); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Merged %s", pluralize(len(graphs), "graph"))
				printStats(merged.NodeCount(), merged.EdgeCount(), false)
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: json, yaml, msgpack, bson, dot, svg, table")
	cmd.Flags().StringSliceVar(&direct, "direct", nil, "mark packages as direct (ecosystem:name[@version])")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show classifier and sources in dot/svg labels")

	return cmd
}
