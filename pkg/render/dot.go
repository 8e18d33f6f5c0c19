package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/graph"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the classifier, locator and sources to node labels.
	// When false, labels show name and version only.
	Detailed bool
	// RankDir is the Graphviz layout direction (TB, LR, ...). Defaults to TB.
	RankDir string
}

// ToDOT converts g to Graphviz DOT source. Output is deterministic: nodes and
// edges appear in key order.
func ToDOT(g *graph.Graph, opts Options) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	ids := graph.NodeIDs(g)
	byEco := make(map[deps.Ecosystem][]graph.Node)
	var ecos []deps.Ecosystem
	for _, n := range g.Nodes() {
		if _, ok := byEco[n.Ecosystem]; !ok {
			ecos = append(ecos, n.Ecosystem)
		}
		byEco[n.Ecosystem] = append(byEco[n.Ecosystem], n)
	}

	clustered := len(ecos) > 1
	for _, eco := range ecos {
		indent := "  "
		if clustered {
			fmt.Fprintf(&buf, "  subgraph %q {\n", "cluster_"+string(eco))
			fmt.Fprintf(&buf, "    label=%q;\n", string(eco))
			buf.WriteString("    style=\"rounded,dashed\";\n")
			indent = "    "
		}
		for _, n := range byEco[eco] {
			fmt.Fprintf(&buf, "%s%q [%s];\n", indent, ids[n.Key()], strings.Join(fmtAttrs(n, opts.Detailed), ", "))
		}
		if clustered {
			buf.WriteString("  }\n")
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", ids[e.From], ids[e.To])
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	label := n.Name
	if n.Version != "" {
		label += "\n" + n.Version
	}
	if !detailed {
		return label
	}

	var parts []string
	if n.Classifier != "" {
		parts = append(parts, "classifier: "+n.Classifier)
	}
	if n.Locator != "" {
		parts = append(parts, "locator: "+n.Locator)
	}
	for _, src := range n.Provenance {
		parts = append(parts, "from: "+src.String())
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n graph.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	switch {
	case n.Placeholder:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	case n.Direct:
		attrs = append(attrs, "penwidth=2.5")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// SVG renders g directly.
func SVG(ctx context.Context, g *graph.Graph, opts Options) ([]byte, error) {
	return RenderSVG(ctx, ToDOT(g, opts))
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one whose
// width and height match the view box, so the image scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
