// Package render draws dependency graphs as node-link diagrams.
//
// [ToDOT] converts a graph to Graphviz DOT source. Direct dependencies are
// drawn with a bold outline, placeholder nodes (known only from a relation)
// dashed and grey. With more than one ecosystem in the graph, nodes are
// clustered per ecosystem.
//
//	dot := render.ToDOT(g, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// [RenderSVG] lays out and renders DOT in-process with
// [github.com/goccy/go-graphviz]; no Graphviz installation is required.
package render
