// Package view is the interactive pager behind --interactive. It shows the
// aligned listing in a scrollable viewport and a filterable instruction
// list; tab switches between them.
package view

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"

	"hexdis/internal/disasm"
	"hexdis/internal/format"
	"hexdis/internal/hexdis/styles"
	"hexdis/internal/pipeline"
	"hexdis/internal/ui/colorize"
)

type pane int

const (
	paneListing pane = iota
	paneInstructions
)

// instItem is one row of the instruction list.
type instItem struct {
	inst  disasm.Inst
	line  string // aligned, possibly styled
	plain string
}

func (i instItem) Title() string       { return i.plain }
func (i instItem) Description() string { return "" }
func (i instItem) FilterValue() string { return i.plain }

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(instItem)
	if !ok {
		return
	}
	if index == m.Index() {
		fmt.Fprint(w, styles.SelectedStyle.Render("> "+i.plain))
		return
	}
	fmt.Fprint(w, "  "+i.line)
}

// Source produces the listing and its rendered lines. It runs off the UI
// goroutine while the spinner is shown.
type Source func() (pipeline.Listing, []string, error)

type decodedMsg struct {
	listing pipeline.Listing
	lines   []string
	err     error
}

// Model is the pager state.
type Model struct {
	viewport viewport.Model
	insts    list.Model
	spinner  spinner.Model
	pane     pane
	source   Source
	title    string
	listing  pipeline.Listing
	lines    []string
	loading  bool
	err      error
	width    int
	height   int
}

// New builds a pager that loads its content from src.
func New(title string, src Source) Model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(22)

	insts := list.New([]list.Item{}, itemDelegate{}, 80, 22)
	insts.SetShowStatusBar(false)
	insts.SetFilteringEnabled(true)
	insts.Title = title
	insts.Styles.Title = styles.TitleStyle
	insts.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	return Model{
		viewport: vp,
		insts:    insts,
		spinner:  s,
		source:   src,
		title:    title,
		loading:  true,
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load, m.spinner.Tick)
}

func (m Model) load() tea.Msg {
	listing, lines, err := m.source()
	return decodedMsg{listing: listing, lines: lines, err: err}
}

// Err is the decode error, if loading failed.
func (m Model) Err() error { return m.err }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case decodedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.viewport.SetContent("error: " + msg.err.Error())
			return m, nil
		}
		m.listing = msg.listing
		m.lines = msg.lines
		m.viewport.SetContent(m.content())
		m.viewport.GotoTop()
		items := make([]list.Item, 0, len(msg.lines))
		for i, line := range msg.lines {
			if i >= len(msg.listing.Insts) {
				break
			}
			items = append(items, instItem{inst: msg.listing.Insts[i], line: line, plain: colorize.Strip(line)})
		}
		return m, m.insts.SetItems(items)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.viewport.SetContent(m.spinner.View() + " Decoding...")
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(msg.Height - 2)
		m.insts.SetWidth(msg.Width)
		m.insts.SetHeight(msg.Height - 2)
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg.String()); handled {
			return next, cmd
		}
	}

	switch m.pane {
	case paneInstructions:
		m.insts, cmd = m.insts.Update(msg)
	default:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// handleKey consumes pager-level keys. Keys it does not handle go to the
// active pane.
func (m Model) handleKey(key string) (Model, tea.Cmd, bool) {
	// While the list filter is open only ctrl+c leaves; every other key
	// edits the filter.
	if m.pane == paneInstructions && m.insts.FilterState() == list.Filtering {
		if key == "ctrl+c" {
			return m, tea.Quit, true
		}
		return m, nil, false
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit, true
	case "tab", "shift+tab":
		if m.loading || m.err != nil {
			return m, nil, true
		}
		if m.pane == paneListing {
			m.pane = paneInstructions
		} else {
			m.pane = paneListing
		}
		return m, nil, true
	case "enter":
		if m.pane != paneInstructions {
			return m, nil, false
		}
		if sel, ok := m.insts.SelectedItem().(instItem); ok {
			m.pane = paneListing
			m.viewport.SetYOffset(m.lineOf(sel.inst.Addr))
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m Model) lineOf(addr uint64) int {
	for i, inst := range m.listing.Insts {
		if inst.Addr == addr {
			return i
		}
	}
	return 0
}

func (m Model) content() string {
	if len(m.lines) == 0 {
		return "no instructions decoded"
	}
	var b strings.Builder
	b.WriteString(strings.Join(m.lines, "\n"))
	if n := len(m.listing.Tail); n > 0 {
		fmt.Fprintf(&b, "\n\n%d trailing bytes could not be decoded", n)
	}
	return b.String()
}

func (m Model) status() string {
	if m.loading {
		return m.title
	}
	return fmt.Sprintf("%s • %d instructions • base %s", m.title, len(m.listing.Insts), format.Address(m.listing.Base))
}

func (m Model) View() string {
	var content, menu string
	switch m.pane {
	case paneInstructions:
		content = m.insts.View()
		menu = " Enter: jump to listing • /: filter • Tab: listing • Q: quit "
	default:
		content = m.viewport.View()
		menu = " ↑/↓: scroll • Tab: instructions • Q: quit "
	}
	bar := styles.MenuStyle.Width(m.width).Render(m.status() + " │" + menu)
	return content + "\n" + bar
}

// Lines renders a listing the way the text output would. When style is set
// the address and byte columns get the pager palette too.
func Lines(l pipeline.Listing, verbosity int, style func(string) string) ([]string, error) {
	opts := format.Options{Verbosity: verbosity, Style: style}
	if style != nil {
		opts.AddressStyle = func(s string) string { return styles.AddressStyle.Render(s) }
		opts.BytesStyle = func(s string) string { return styles.BytesStyle.Render(s) }
	}
	p := format.NewPrinter(io.Discard, opts)
	for _, inst := range l.Insts {
		if err := p.Queue(inst); err != nil {
			return nil, err
		}
	}
	return p.Lines(), nil
}

// Run shows the pager until the user quits. A decode failure is returned
// after the pager closes.
func Run(ctx context.Context, m Model) error {
	program := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("pager: %w", err)
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
