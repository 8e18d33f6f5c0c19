package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/scan"
)

// stdout receives all status output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success, direct dependencies
	colorYellow = lipgloss.Color("220") // warnings, skipped files
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // links, commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // muted text, placeholders
)

// ecosystemColors tints the ecosystem column of tables.
var ecosystemColors = map[deps.Ecosystem]lipgloss.Color{
	deps.Debian:     lipgloss.Color("161"),
	deps.Alpine:     lipgloss.Color("68"),
	deps.Python:     lipgloss.Color("220"),
	deps.Rust:       lipgloss.Color("173"),
	deps.Go:         lipgloss.Color("81"),
	deps.JavaScript: lipgloss.Color("185"),
	deps.Ruby:       lipgloss.Color("167"),
	deps.PHP:        lipgloss.Color("104"),
	deps.Java:       lipgloss.Color("130"),
}

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey      = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// ecosystemStyle returns the table style of an ecosystem name.
func ecosystemStyle(e deps.Ecosystem) lipgloss.Style {
	if c, ok := ecosystemColors[e]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle()
}

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printStatus(icon string, iconStyle lipgloss.Style, msg string) {
	fmt.Fprintln(stdout, iconStyle.Render(icon)+" "+msg)
}

func printSuccess(format string, args ...any) {
	printStatus(iconSuccess, styleIconSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printStatus(iconError, styleIconError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printStatus(iconWarning, styleIconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printStatus(iconInfo, styleIconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the path of a written output file.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}

// printBlock prints pre-rendered output such as a table.
func printBlock(s string) {
	fmt.Fprintln(stdout, s)
}

// =============================================================================
// Domain Output
// =============================================================================

// printStats prints graph size and whether the graph came from the cache.
func printStats(nodeCount, edgeCount int, cached bool) {
	parts := []string{
		pluralize(nodeCount, "node"),
		pluralize(edgeCount, "edge"),
	}
	status := styleComputed.Render("fresh")
	if cached {
		status = styleCached.Render("cached")
	}
	fmt.Fprintln(stdout, "  "+StyleDim.Render(strings.Join(parts, " · ")+" · ")+status)
}

// printFailure reports one skipped file, with the position of parse and
// decode failures on a second line.
func printFailure(f *scan.FileFailure) {
	printError("%s %s", f.Path, StyleDim.Render("("+f.Format+")"))
	var pf *errors.ParseFailure
	var mf *errors.MalformedInputFailure
	switch {
	case stderrors.As(f.Err, &pf):
		switch {
		case pf.Line > 0 && pf.Rule != "":
			printDetail("line %d, %s: %s", pf.Line, pf.Rule, pf.Reason)
		case pf.Line > 0:
			printDetail("line %d: %s", pf.Line, pf.Reason)
		default:
			printDetail("%s", pf.Reason)
		}
	case stderrors.As(f.Err, &mf):
		printDetail("byte %d: %s", mf.Offset, mf.Reason)
	default:
		printDetail("%s", errors.UserMessage(f.Err))
	}
}
