package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/deps/ecosystems"
)

// formatsCommand creates the formats command.
func (c *CLI) formatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported metadata formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				ecos []deps.Ecosystem
				rows [][]string
			)
			for _, l := range ecosystems.Registry.Languages() {
				for _, p := range l.Parsers {
					name := p.Format()
					if name == l.DefaultFormat {
						name += " *"
					}
					ecos = append(ecos, l.Name)
					rows = append(rows, []string{string(l.Name), name, "records", strings.Join(p.Patterns(), "\n")})
				}
				for _, d := range l.Declarers {
					ecos = append(ecos, l.Name)
					rows = append(rows, []string{string(l.Name), d.Format(), "declares", strings.Join(d.Patterns(), "\n")})
				}
			}
			t := newEcosystemTable(ecos, "Ecosystem", "Format", "Kind", "Paths").Rows(rows...)
			printBlock(t.Render())
			printDetail("* default format of the ecosystem")
			return nil
		},
	}
}
