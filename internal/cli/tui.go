package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/editor"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// nudgeStep is how far the arrow keys move the selected topic.
const nudgeStep = 10.0

var nudges = map[string][2]float64{
	"up":    {0, -nudgeStep},
	"down":  {0, nudgeStep},
	"left":  {-nudgeStep, 0},
	"right": {nudgeStep, 0},
}

var (
	canvasStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	helpStyle   = lipgloss.NewStyle().Foreground(colorDim)
	statusStyle = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// edit command
// =============================================================================

func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "edit [map]",
		Short:             "Edit a map interactively in the terminal",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeMap(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			sess, err := c.openSession(args[0], cfg.Layout, 0)
			if err != nil {
				return err
			}

			final, err := tea.NewProgram(newEditorModel(sess, args[0]), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("editor: %w", err)
			}
			if m, ok := final.(editorModel); ok && m.saves > 0 {
				printSuccess("Saved %s", args[0])
			}
			return nil
		},
	}
}

// =============================================================================
// editorModel - the interactive canvas
// =============================================================================

// savedMsg reports the outcome of a save.
type savedMsg struct{ err error }

// editorModel is the bubbletea model for the interactive editor.
// It drives an editor.Session; every key maps to one gesture.
type editorModel struct {
	sess *editor.Session
	path string

	cursor     int    // index into the node list
	source     string // pending connection source, "" if none
	dirty      bool
	confirming bool // quit pressed with unsaved changes
	saves      int
	status     string
	width      int
}

func newEditorModel(sess *editor.Session, path string) editorModel {
	return editorModel{sess: sess, path: path, width: 80}
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case savedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
			return m, nil
		}
		m.dirty = false
		m.saves++
		m.status = "saved " + m.path
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m editorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "q" && key != "ctrl+c" {
		m.confirming = false
	}

	switch key {
	case "q", "ctrl+c":
		if m.dirty && !m.confirming {
			m.confirming = true
			m.status = "unsaved changes: press q again to discard, s to save"
			return m, nil
		}
		return m, tea.Quit

	case "tab", "j":
		m.cursor = (m.cursor + 1) % max(m.nodeCount(), 1)
	case "shift+tab", "k":
		n := max(m.nodeCount(), 1)
		m.cursor = (m.cursor - 1 + n) % n

	case "a":
		node, _ := m.sess.AddTopic()
		m.cursor = m.nodeCount() - 1
		m.edited("added " + node.Label)

	case "o":
		placed, err := m.sess.Organize(context.Background())
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.edited(fmt.Sprintf("placed %d topics", placed))

	case "c":
		id := m.selected()
		if m.source == "" {
			m.source = id
			m.status = "connect " + id + " → select a target and press c"
			return m, nil
		}
		src := m.source
		m.source = ""
		if src == id {
			m.status = "connection cancelled"
			return m, nil
		}
		if _, added, err := m.sess.Connect(src, id); err != nil {
			m.status = err.Error()
		} else if added {
			m.edited("connected " + src + " → " + id)
		} else {
			m.status = src + " → " + id + " already connected"
		}

	case "esc":
		m.source = ""
		m.status = ""

	case "x", "delete":
		id := m.selected()
		if err := m.sess.Remove(id); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.cursor = min(m.cursor, max(m.nodeCount()-1, 0))
		m.edited("removed " + id)

	case "up", "down", "left", "right":
		d := nudges[key]
		if err := m.sess.Nudge(m.selected(), d[0], d[1]); err == nil {
			m.dirty = true
		}

	case "s", "ctrl+s":
		return m, m.save()
	}
	return m, nil
}

func (m *editorModel) edited(status string) {
	m.dirty = true
	m.status = status
}

func (m editorModel) save() tea.Cmd {
	snap, path := m.sess.Snapshot(), m.path
	return func() tea.Msg {
		return savedMsg{err: mindmap.WriteFile(snap, path)}
	}
}

func (m editorModel) nodeCount() int {
	return m.sess.Snapshot().NodeCount()
}

// selected returns the ID of the topic under the cursor.
func (m editorModel) selected() string {
	nodes := m.sess.Snapshot().Nodes
	if m.cursor < 0 || m.cursor >= len(nodes) {
		return ""
	}
	return nodes[m.cursor].ID
}

func (m editorModel) View() string {
	snap := m.sess.Snapshot()
	var b strings.Builder

	title := snap.Title
	if title == "" {
		title = m.path
	}
	if m.dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")

	cols := max(m.width-4, 20)
	b.WriteString(canvasStyle.Render(plotCanvas(snap, cols, 12, m.selected())))
	b.WriteString("\n")
	b.WriteString(nodeTable(snap, m.sess.Root(), m.cursor))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/j/k select  ←↑↓→ move  a add topic  c connect  x remove  o layout  s save  q quit"))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
	}
	return b.String()
}

// =============================================================================
// Canvas
// =============================================================================

// plotCanvas draws topics as their IDs on a character grid scaled to fit,
// with connections as dotted lines. The selected topic is bracketed.
func plotCanvas(m mindmap.MindMap, cols, rows int, selected string) string {
	if len(m.Nodes) == 0 || cols < 4 || rows < 2 {
		return ""
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range m.Nodes {
		minX, maxX = math.Min(minX, n.Position.X), math.Max(maxX, n.Position.X)
		minY, maxY = math.Min(minY, n.Position.Y), math.Max(maxY, n.Position.Y)
	}
	scale := func(v, lo, hi float64, size int) int {
		if hi <= lo {
			return size / 2
		}
		return int(math.Round((v - lo) / (hi - lo) * float64(size-1)))
	}

	grid := make([][]rune, rows)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", cols))
	}

	cells := make(map[string][2]int, len(m.Nodes))
	for _, n := range m.Nodes {
		cells[n.ID] = [2]int{
			scale(n.Position.X, minX, maxX, cols),
			scale(n.Position.Y, minY, maxY, rows),
		}
	}

	for _, e := range m.Edges {
		a, okA := cells[e.Source]
		b, okB := cells[e.Target]
		if !okA || !okB {
			continue
		}
		steps := max(abs(b[0]-a[0]), abs(b[1]-a[1]))
		for s := 1; s < steps; s++ {
			x := a[0] + (b[0]-a[0])*s/steps
			y := a[1] + (b[1]-a[1])*s/steps
			grid[y][x] = '·'
		}
	}

	for _, n := range m.Nodes {
		label := n.ID
		if n.ID == selected {
			label = "[" + n.ID + "]"
		}
		c := cells[n.ID]
		x := min(max(c[0]-len(label)/2, 0), max(cols-len(label), 0))
		for i, r := range label {
			if x+i < cols {
				grid[c[1]][x+i] = r
			}
		}
	}

	lines := make([]string, rows)
	for y, row := range grid {
		lines[y] = string(row)
	}
	return strings.Join(lines, "\n")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
