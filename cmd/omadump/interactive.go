package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/omgaudio/omadb/catalog"
	"github.com/omgaudio/omadb/config"
	"github.com/omgaudio/omadb/errors"
	"github.com/omgaudio/omadb/oma"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browserState int

const (
	stateTrees browserState = iota
	stateClasses
	stateElements
)

const defaultPageSize = 20

type browserModel struct {
	err      error
	ctx      context.Context
	cfg      *config.Config
	status   string
	trees    []*catalog.Tree
	input    textinput.Model
	tree     int
	class    int
	element  int
	pageSize int
	state    browserState
	jumping  bool
	loaded   bool
}

type catalogMsg struct {
	err error
	cat *catalog.Catalog
}

func newBrowserModel(ctx context.Context, cfg *config.Config) *browserModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Width = 20
	return &browserModel{
		ctx:      ctx,
		cfg:      cfg,
		input:    ti,
		pageSize: defaultPageSize,
		state:    stateTrees,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return m.loadCatalog
}

func (m *browserModel) loadCatalog() tea.Msg {
	cat, err := catalog.Open(m.ctx, m.cfg.Root, m.cfg.CatalogOptions()...)
	return catalogMsg{cat: cat, err: err}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case catalogMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.trees = msg.cat.Trees()

	case tea.WindowSizeMsg:
		if msg.Height > 8 {
			m.pageSize = msg.Height - 8
		}

	case tea.KeyMsg:
		if m.jumping {
			return m.updateJump(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *browserModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		m.move(-1)

	case "down", "j":
		m.move(1)

	case "pgup":
		m.move(-m.pageSize)

	case "pgdown", " ":
		m.move(m.pageSize)

	case "enter":
		switch m.state {
		case stateTrees:
			if len(m.trees) > 0 {
				m.state, m.class = stateClasses, 0
			}
		case stateClasses:
			if len(m.currentTree().Table.Classes) > 0 {
				m.state, m.element = stateElements, 0
			}
		}

	case "esc", "backspace":
		m.status = ""
		switch m.state {
		case stateClasses:
			m.state = stateTrees
		case stateElements:
			m.state = stateClasses
		}

	case "/":
		if m.state == stateElements {
			m.jumping = true
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m *browserModel) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.jumping = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.jumping = false
		m.input.Blur()
		m.jump(m.input.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// jump moves to a TPLB position, the first GPLB entry with a group id,
// or a raw byte offset.
func (m *browserModel) jump(value string) {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 0, 16)
	if err != nil {
		m.status = fmt.Sprintf("not a number: %q", value)
		return
	}
	switch k := m.currentClass().Kind.(type) {
	case oma.Tplb:
		if n < 1 || int(n) > len(k) {
			m.status = fmt.Sprintf("position %d out of range [1, %d]", n, len(k))
			return
		}
		m.element = int(n) - 1
	case oma.Gplb:
		for i, e := range k {
			if uint64(e.ID) == n {
				m.element = i
				m.status = ""
				return
			}
		}
		m.status = fmt.Sprintf("no group with id %d", n)
		return
	case oma.Raw:
		if int(n) >= len(k.Data) {
			m.status = fmt.Sprintf("offset %d beyond %d bytes", n, len(k.Data))
			return
		}
		m.element = int(n)
	}
	m.status = ""
}

func (m *browserModel) move(delta int) {
	var n int
	switch m.state {
	case stateTrees:
		n = len(m.trees)
	case stateClasses:
		n = len(m.currentTree().Table.Classes)
	case stateElements:
		n = m.currentClass().Kind.Len()
	}
	if n == 0 {
		return
	}
	cur := m.cursor()
	*cur = max(0, min(n-1, *cur+delta))
}

func (m *browserModel) cursor() *int {
	switch m.state {
	case stateClasses:
		return &m.class
	case stateElements:
		return &m.element
	default:
		return &m.tree
	}
}

func (m *browserModel) currentTree() *catalog.Tree {
	return m.trees[m.tree]
}

func (m *browserModel) currentClass() oma.Class {
	return m.currentTree().Table.Classes[m.class]
}

func (m *browserModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Loading catalog..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("OMGAUDIO"))
	b.WriteString(" ")
	b.WriteString(m.cfg.Root)
	b.WriteString("\n\n")

	switch m.state {
	case stateTrees:
		m.viewTrees(&b)
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter open • q quit"))
	case stateClasses:
		m.viewClasses(&b)
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter elements • esc back • q quit"))
	case stateElements:
		m.viewElements(&b)
		b.WriteString("\n")
		if m.jumping {
			b.WriteString(m.input.View())
			b.WriteString("\n")
		}
		if m.status != "" {
			b.WriteString(errorStyle.Render(m.status))
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render("↑/↓ pgup/pgdn scroll • / jump • esc back • q quit"))
	}
	return b.String()
}

func (m *browserModel) viewTrees(b *strings.Builder) {
	if len(m.trees) == 0 {
		b.WriteString("No TREE tables found.\n")
		return
	}
	for i, t := range m.trees {
		line := fmt.Sprintf("%-13s %s  %d classes  %s",
			t.Axis, t.Path, len(t.Table.Classes), t.Digest.String()[:12])
		if i == m.tree {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("  ")
		if n := len(errors.Flatten(t.Findings)); n > 0 {
			b.WriteString(errorStyle.Render(fmt.Sprintf("%d findings", n)))
		} else if m.cfg.Check {
			b.WriteString(okStyle.Render("consistent"))
		}
		b.WriteString("\n")
	}
}

func (m *browserModel) viewClasses(b *strings.Builder) {
	t := m.currentTree()
	fmt.Fprintf(b, "%s %s\n\n", tagStyle.Render(t.Table.Name.String()), t.Path)
	for i, c := range t.Table.Classes {
		d := t.Table.Descriptions[i]
		line := fmt.Sprintf("%s at 0x%06x len 0x%x  %d x %d",
			c.Name, d.Address, d.Len, c.ElementCount, c.ElementLength)
		if i == m.class {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	for _, f := range errors.Flatten(t.Findings) {
		b.WriteString(errorStyle.Render(f.Error()))
		b.WriteString("\n")
	}
}

func (m *browserModel) viewElements(b *strings.Builder) {
	t := m.currentTree()
	c := m.currentClass()
	n := c.Kind.Len()
	start := max(0, min(m.element-m.pageSize/2, n-m.pageSize))
	end := min(n, start+m.pageSize)

	fmt.Fprintf(b, "%s %s  %s\n\n", tagStyle.Render(c.Name.String()), t.Axis,
		valueStyle.Render(fmt.Sprintf("%d-%d of %d", start+1, end, n)))
	for i := start; i < end; i++ {
		line := elementLine(t.Axis, c.Kind, i)
		if i == m.element {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
}

func elementLine(axis oma.Axis, k oma.ClassKind, i int) string {
	switch k := k.(type) {
	case oma.Gplb:
		e := k[i]
		line := fmt.Sprintf("[%d] id %-5d %-6s", i, e.ID, e.Association)
		if axis.Positioned(e.Association) {
			line += fmt.Sprintf(" starts at TPLB %d", e.TitleID)
		}
		return line
	case oma.Tplb:
		return fmt.Sprintf("%5d: title %d", i+1, k[i].TitleID)
	case oma.Raw:
		return fmt.Sprintf("%06x: %02x", i, k.Data[i])
	}
	return ""
}

func runInteractive(ctx context.Context, cfg *config.Config) error {
	p := tea.NewProgram(newBrowserModel(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
