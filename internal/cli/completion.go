package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/deps/ecosystems"
)

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Print a shell completion script for depscan.

Completions cover subcommands, flags, format names for "depscan parse" and
snapshot IDs for "depscan show".`,
		Example: `  source <(depscan completion bash)
  depscan completion zsh > "${fpath[1]}/_depscan"
  depscan completion fish > ~/.config/fish/completions/depscan.fish
  depscan completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}

// completeFormats offers format names and ecosystems for the first argument
// of "depscan parse", then falls back to file names.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	names := ecosystems.Registry.FormatNames()
	for _, e := range deps.Ecosystems {
		names = append(names, string(e))
	}
	return names, cobra.ShellCompDirectiveDefault
}

// completeGraphFormats offers the values of --format for graph output.
func completeGraphFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return graphFormats, cobra.ShellCompDirectiveNoFileComp
}

// completeSnapshots offers the IDs of recent snapshots, described by
// project and time.
func (c *CLI) completeSnapshots(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx := cmd.Context()
	cfg, err := c.loadConfig(".")
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer store.Close()

	snaps, err := store.List(ctx, "", 50)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	ids := make([]string, 0, len(snaps))
	for _, s := range snaps {
		ids = append(ids, s.ID+"\t"+s.Project+" "+s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
