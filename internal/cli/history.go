package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/graph"
)

// historyCommand creates the history command.
func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [project]",
		Short: "List stored scan snapshots, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project := ""
			if len(args) == 1 {
				project = args[0]
				if err := errors.ValidatePackageName(project); err != nil {
					return err
				}
			}
			cfg, err := c.loadConfig(".")
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			snaps, err := store.List(ctx, project, limit)
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				printInfo("No snapshots yet")
				printNextStep("Create one", "depscan scan --save")
				return nil
			}

			t := newTable("ID", "Project", "Created", "Nodes", "Edges", "Failures", "Fingerprint")
			for _, s := range snaps {
				t.Row(s.ID, s.Project, s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					strconv.Itoa(s.Nodes), strconv.Itoa(s.Edges), strconv.Itoa(s.Failures), shortHash(s.Fingerprint))
			}
			printBlock(t.Render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum snapshots to list (0 for all)")
	cmd.AddCommand(c.historyDeleteCommand())

	return cmd
}

// historyDeleteCommand creates the "history delete" subcommand.
func (c *CLI) historyDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete stored snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(".")
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if err := store.Delete(ctx, id); err != nil {
					return err
				}
			}
			printSuccess("Deleted %s", pluralize(len(args), "snapshot"))
			return nil
		},
	}
}

// showCommand creates the show command.
func (c *CLI) showCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:               "show <id>",
		Short:             "Show a stored snapshot",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeSnapshots,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(".")
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			snap, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}

			if format == "" {
				if output == "" {
					format = formatTable
				} else {
					format = formatFromPath(output)
				}
			}
			if format == formatTable && output == "" {
				printKeyValue("Snapshot", snap.ID)
				printKeyValue("Project", snap.Project)
				printKeyValue("Root", snap.Root)
				printKeyValue("Created", snap.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				printKeyValue("Failures", strconv.Itoa(snap.Failures))
				printKeyValue("Fingerprint", snap.Fingerprint)
				printNewline()
				printBlock(summaryTable(graph.Summarize(snap.Graph)))
			}
			if err := writeGraphTo(ctx, snap.Graph, output, format, detailed); err != nil {
				return err
			}
			if output != "" {
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: table, json, yaml, msgpack, bson, dot, svg")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show classifier and sources in dot/svg labels")

	return cmd
}

func shortHash(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
