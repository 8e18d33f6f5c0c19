package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/graph"
	"github.com/matzehuels/depscan/pkg/render"
)

// Output formats accepted by --format.
const (
	formatJSON    = "json"
	formatYAML    = "yaml"
	formatMsgPack = "msgpack"
	formatBSON    = "bson"
	formatDOT     = "dot"
	formatSVG     = "svg"
	formatTable   = "table"
)

var (
	recordFormats = []string{formatTable, formatJSON, formatYAML}
	graphFormats  = []string{formatJSON, formatYAML, formatMsgPack, formatBSON, formatDOT, formatSVG, formatTable}
)

// formatFromPath guesses the output format from a file extension.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	case ".msgpack":
		return formatMsgPack
	case ".bson":
		return formatBSON
	case ".dot", ".gv":
		return formatDOT
	case ".svg":
		return formatSVG
	}
	return formatJSON
}

func checkFormat(format string, allowed []string) error {
	for _, f := range allowed {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want %s)", format, strings.Join(allowed, ", "))
}

// writeRecords writes parsed records in format.
func writeRecords(w io.Writer, records []deps.Record, format string) error {
	switch format {
	case formatJSON:
		if records == nil {
			records = []deps.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case formatYAML:
		return yaml.NewEncoder(w).Encode(records)
	case formatTable, "":
		_, err := fmt.Fprintln(w, recordTable(records))
		return err
	}
	return checkFormat(format, recordFormats)
}

// encodeGraph serializes g in format.
func encodeGraph(ctx context.Context, g *graph.Graph, format string, detailed bool) ([]byte, error) {
	switch format {
	case formatDOT:
		return []byte(render.ToDOT(g, render.Options{Detailed: detailed})), nil
	case formatSVG:
		return render.SVG(ctx, g, render.Options{Detailed: detailed})
	case formatTable:
		return []byte(nodeTable(g) + "\n"), nil
	}
	enc, err := graph.ParseEncoding(format)
	if err != nil {
		return nil, checkFormat(format, graphFormats)
	}
	return graph.Marshal(g, enc)
}

// writeGraphTo writes g to path, or to stdout when path is empty or "-".
func writeGraphTo(ctx context.Context, g *graph.Graph, path, format string, detailed bool) error {
	data, err := encodeGraph(ctx, g, format, detailed)
	if err != nil {
		return err
	}
	return writeOutput(path, data)
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// readGraph loads a graph document, choosing the decoder by extension.
func readGraph(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	enc := graph.JSON
	if f := formatFromPath(path); f == formatYAML || f == formatMsgPack || f == formatBSON {
		enc = graph.Encoding(f)
	}
	g, err := graph.Unmarshal(data, enc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// =============================================================================
// Tables
// =============================================================================

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
var tableCellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}

// newEcosystemTable is newTable with the first column tinted per ecosystem.
// ecos holds the ecosystem of each data row in order.
func newEcosystemTable(ecos []deps.Ecosystem, headers ...string) *table.Table {
	return newTable(headers...).StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == -1:
			return tableHeaderStyle
		case col == 0 && row < len(ecos):
			return ecosystemStyle(ecos[row]).Padding(0, 1)
		}
		return tableCellStyle
	})
}

func recordTable(records []deps.Record) string {
	ecos := make([]deps.Ecosystem, len(records))
	for i, r := range records {
		ecos[i] = r.Ecosystem
	}
	t := newEcosystemTable(ecos, "Ecosystem", "Name", "Version", "Classifier", "Locator")
	for _, r := range records {
		t.Row(string(r.Ecosystem), r.Name, dash(r.Version), dash(r.Classifier), dash(r.Locator))
	}
	return t.Render()
}

func nodeTable(g *graph.Graph) string {
	t := newTable("Package", "Direct", "Deps", "Sources")
	for _, n := range g.Nodes() {
		direct := ""
		if n.Direct {
			direct = iconSuccess
		}
		name := n.Key().String()
		if n.Placeholder {
			name += " (placeholder)"
		}
		t.Row(name, direct, strconv.Itoa(len(g.Children(n.Key()))), sourceList(n.Provenance))
	}
	return t.Render()
}

func summaryTable(s graph.Summary) string {
	var ecos []deps.Ecosystem
	for _, eco := range deps.Ecosystems {
		if s.ByEcosystem[eco] > 0 {
			ecos = append(ecos, eco)
		}
	}
	t := newEcosystemTable(ecos, "Ecosystem", "Packages")
	for _, eco := range ecos {
		t.Row(string(eco), strconv.Itoa(s.ByEcosystem[eco]))
	}
	return t.Render()
}

func sourceList(sources []graph.Source) string {
	paths := make([]string, len(sources))
	for i, s := range sources {
		paths[i] = s.Path
		if paths[i] == "" {
			paths[i] = s.Format
		}
	}
	return strings.Join(paths, ", ")
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
