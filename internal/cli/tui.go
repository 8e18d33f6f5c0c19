package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailKeyStyle    = lipgloss.NewStyle().Foreground(colorGray).Width(10)
)

// =============================================================================
// NodeListModel - Interactive graph browser
// =============================================================================

// NodeListModel is the bubbletea model of "depscan inspect". It lists the
// nodes of a graph and shows the parents, children and sources of the one
// under the cursor. Typing filters the list by name.
type NodeListModel struct {
	Graph      *graph.Graph
	Nodes      []graph.Node // visible nodes after filtering
	Cursor     int
	Offset     int
	Height     int
	Filter     string
	DirectOnly bool

	all []graph.Node
}

// NewNodeListModel creates a browser over g.
func NewNodeListModel(g *graph.Graph) NodeListModel {
	all := g.Nodes()
	return NodeListModel{Graph: g, Nodes: all, Height: 15, all: all}
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			m.move(-1)
		case tea.KeyDown:
			m.move(1)
		case tea.KeyPgUp:
			m.move(-m.Height)
		case tea.KeyPgDown:
			m.move(m.Height)
		case tea.KeyTab:
			m.DirectOnly = !m.DirectOnly
			m.apply()
		case tea.KeyBackspace:
			if m.Filter != "" {
				m.Filter = m.Filter[:len(m.Filter)-1]
				m.apply()
			}
		case tea.KeyRunes:
			m.Filter += string(msg.Runes)
			m.apply()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-16, 5)
		m.move(0)
	}
	return m, nil
}

func (m *NodeListModel) move(delta int) {
	m.Cursor = min(max(m.Cursor+delta, 0), max(len(m.Nodes)-1, 0))
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// apply recomputes the visible nodes and keeps the cursor in range.
func (m *NodeListModel) apply() {
	filter := strings.ToLower(m.Filter)
	m.Nodes = m.Nodes[:0:0]
	for _, n := range m.all {
		if m.DirectOnly && !n.Direct {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(n.Name), filter) {
			continue
		}
		m.Nodes = append(m.Nodes, n)
	}
	m.Cursor, m.Offset = 0, 0
}

// Selected returns the node under the cursor.
func (m NodeListModel) Selected() (graph.Node, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Nodes) {
		return graph.Node{}, false
	}
	return m.Nodes[m.Cursor], true
}

func (m NodeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Dependency Graph"))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d nodes · %d edges", m.Graph.NodeCount(), m.Graph.EdgeCount())))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  type to filter  tab direct only  esc quit"))
	b.WriteString("\n")
	if m.Filter != "" || m.DirectOnly {
		status := "filter: " + m.Filter
		if m.DirectOnly {
			status += "  [direct only]"
		}
		b.WriteString(StyleHighlight.Render(status))
	}
	b.WriteString("\n")

	end := min(m.Offset+m.Height, len(m.Nodes))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		direct := ""
		if n.Direct {
			direct = iconSuccess
		}
		rows = append(rows, []string{cursor, string(n.Ecosystem), n.Name, dash(n.Version), direct})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Ecosystem", "Name", "Version", "Direct").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Nodes) {
				return lipgloss.NewStyle()
			}
			n := m.Nodes[idx]
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case n.Placeholder:
				return listDimStyle
			case n.Direct:
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Nodes)), len(m.Nodes))))
	b.WriteString("\n\n")

	if n, ok := m.Selected(); ok {
		b.WriteString(m.details(n))
	}
	return b.String()
}

func (m NodeListModel) details(n graph.Node) string {
	var b strings.Builder
	line := func(key, value string) {
		b.WriteString(detailKeyStyle.Render(key) + " " + StyleValue.Render(value) + "\n")
	}
	k := n.Key()
	line("Package", k.String())
	if n.Locator != "" {
		line("Locator", n.Locator)
	}
	if n.Placeholder {
		line("Status", "placeholder (referenced but not recorded)")
	}
	line("Sources", dash(sourceList(n.Provenance)))
	line("Depends", dash(keyList(m.Graph.Children(k), 6)))
	line("Used by", dash(keyList(m.Graph.Parents(k), 6)))
	return b.String()
}

// keyList joins up to limit keys and notes how many were left out.
func keyList(keys []deps.Key, limit int) string {
	parts := make([]string, 0, min(len(keys), limit)+1)
	for i, k := range keys {
		if i == limit {
			parts = append(parts, fmt.Sprintf("+%d more", len(keys)-limit))
			break
		}
		parts = append(parts, k.String())
	}
	return strings.Join(parts, ", ")
}
