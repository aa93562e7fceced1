package cli

import (
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/mindmap/pkg/editor"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m editorModel, keys ...string) (editorModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(editorModel)
	}
	return m, cmd
}

func testModel(t *testing.T) editorModel {
	t.Helper()
	sess := editor.NewSession("TUI", editor.WithRand(rand.New(rand.NewPCG(1, 0))))
	return newEditorModel(sess, filepath.Join(t.TempDir(), "m.json"))
}

func TestEditorModel_AddAndOrganize(t *testing.T) {
	m, _ := press(t, testModel(t), "a", "a")

	snap := m.sess.Snapshot()
	if snap.NodeCount() != 3 || snap.EdgeCount() != 2 {
		t.Fatalf("nodes=%d edges=%d, want 3 and 2", snap.NodeCount(), snap.EdgeCount())
	}
	if !m.dirty || m.selected() != "3" {
		t.Errorf("dirty=%v selected=%q, want true and 3", m.dirty, m.selected())
	}

	m, _ = press(t, m, "o")
	if n, _ := m.sess.Snapshot().Node("3"); !near(n.Position.X, 450) || !near(n.Position.Y, 200) {
		t.Errorf("node 3 at %+v after organize, want (450, 200)", n.Position)
	}
	if m.status != "placed 2 topics" {
		t.Errorf("status = %q", m.status)
	}
}

func TestEditorModel_ConnectAndRemove(t *testing.T) {
	m, _ := press(t, testModel(t), "a", "a")

	// cursor is on 3; select 2 as source, then 3 as target
	m, _ = press(t, m, "k", "c", "j", "c")
	if !m.sess.Snapshot().HasEdge("2", "3") {
		t.Fatalf("edge 2→3 missing, status %q", m.status)
	}

	m, _ = press(t, m, "tab", "x")
	if m.status != editor.ErrRootRemoval.Error() {
		t.Errorf("removing the root: status %q", m.status)
	}

	m, _ = press(t, m, "j", "j", "x")
	snap := m.sess.Snapshot()
	if _, ok := snap.Node("3"); ok || snap.EdgeCount() != 1 {
		t.Errorf("after remove: nodes=%+v edges=%+v", snap.Nodes, snap.Edges)
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestEditorModel_Nudge(t *testing.T) {
	m := testModel(t)
	m, _ = press(t, m, "up", "right", "right")

	n, _ := m.sess.Snapshot().Node("1")
	want := mindmap.Position{X: mindmap.DefaultRootPosition.X + 2*nudgeStep, Y: mindmap.DefaultRootPosition.Y - nudgeStep}
	if n.Position != want {
		t.Errorf("root at %+v, want %+v", n.Position, want)
	}
}

func TestEditorModel_SaveAndQuit(t *testing.T) {
	m, _ := press(t, testModel(t), "a")

	// Quitting with unsaved changes asks first.
	m, cmd := press(t, m, "q")
	if cmd != nil || !m.confirming {
		t.Fatal("first q with unsaved changes should ask for confirmation")
	}

	m, cmd = press(t, m, "s")
	if cmd == nil {
		t.Fatal("s returned no command")
	}
	next, _ := m.Update(cmd())
	m = next.(editorModel)
	if m.dirty || m.saves != 1 {
		t.Errorf("after save: dirty=%v saves=%d", m.dirty, m.saves)
	}
	saved, err := mindmap.ReadFile(m.path)
	if err != nil {
		t.Fatal(err)
	}
	if saved.NodeCount() != 2 {
		t.Errorf("saved %d nodes, want 2", saved.NodeCount())
	}

	_, cmd = press(t, m, "q")
	if cmd == nil {
		t.Fatal("q on a clean map should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
}

func TestEditorModel_View(t *testing.T) {
	m, _ := press(t, testModel(t), "a")
	view := m.View()
	for _, want := range []string{"TUI *", "Central Topic", "Topic 2", "a add topic"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestPlotCanvas(t *testing.T) {
	m := mindmap.New("")
	m = m.WithNode(mindmap.Node{ID: "2", Position: mindmap.Position{X: 450, Y: 200}})
	m = m.WithEdge(mindmap.Edge{ID: "e1-2", Source: "1", Target: "2"})

	got := plotCanvas(m, 20, 5, "2")
	lines := strings.Split(got, "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
	if !strings.HasPrefix(lines[0], "1") {
		t.Errorf("root not in the top-left corner: %q", lines[0])
	}
	if !strings.HasSuffix(lines[4], "[2]") {
		t.Errorf("selected topic not bracketed in the bottom-right corner: %q", lines[4])
	}
	if !strings.Contains(lines[2], "·") {
		t.Errorf("connection not drawn:\n%s", got)
	}

	if plotCanvas(mindmap.MindMap{}, 20, 5, "") != "" {
		t.Error("empty map should plot nothing")
	}
}
