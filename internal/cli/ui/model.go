// Package ui renders the interactive run view: a scrolling file list with
// per-file status, a header naming the run, and a footer of live counters.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docshelf/pdfdistill/internal/cli/hooks"
	"github.com/docshelf/pdfdistill/pkg/distill"
)

const listHeightMargin = 4

// Model is the Bubble Tea state for one conversion run. All mutation happens
// on the program goroutine; engine events arrive as messages via Send.
type Model struct {
	list    list.Model
	spinner spinner.Model

	width       int
	height      int
	initialized bool

	version string
	runID   string
	phase   string

	quitting bool
	done     bool

	total     int
	converted int
	skipped   int
	failed    int
	startTime time.Time

	items   []fileItem
	itemIdx map[string]int
}

type fileItem struct {
	path     string
	status   distill.Status
	reason   distill.Reason
	duration time.Duration
}

// NewModel builds the initial view state.
func NewModel(version string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorRunning)

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	delegate.ShowDescription = true
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(colorSelectedDescFg).
		Background(colorSelectedBg).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.
		Foreground(colorNormalFg).Padding(0, 0, 0, 1)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.
		Foreground(colorNormalDescFg).Padding(0, 0, 0, 1)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{
		list:      l,
		spinner:   s,
		version:   version,
		phase:     "starting",
		startTime: time.Now(),
		itemIdx:   make(map[string]int),
	}
}

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - listHeightMargin
		if listHeight < 1 {
			listHeight = 1
		}
		m.list.SetSize(m.width, listHeight)
		m.initialized = true

	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		if m.quitting || m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case hooks.RunStartMsg:
		m.runID = msg.RunID
		m.total = msg.Total
		m.phase = "converting"

	case hooks.FileDiscoveredMsg:
		if _, exists := m.itemIdx[msg.Path]; !exists {
			m.items = append(m.items, fileItem{path: msg.Path, status: distill.StatusPending})
			m.itemIdx[msg.Path] = len(m.items) - 1
			if len(m.items) > m.total {
				m.total = len(m.items)
			}
			cmds = append(cmds, m.refreshList())
		}

	case hooks.FileStatusMsg:
		idx, ok := m.itemIdx[msg.Path]
		if !ok {
			m.items = append(m.items, fileItem{path: msg.Path})
			idx = len(m.items) - 1
			m.itemIdx[msg.Path] = idx
		}
		item := &m.items[idx]
		if !isTerminal(item.status) && isTerminal(msg.Status) {
			m.countTerminal(msg.Status)
		}
		item.status = msg.Status
		item.reason = msg.Reason
		item.duration = msg.Duration
		cmds = append(cmds, m.refreshList())

	case hooks.RunCompleteMsg:
		m.done = true
		m.phase = "complete"
		m.converted = msg.Summary.Converted
		m.skipped = msg.Summary.Skipped
		m.failed = msg.Summary.Failed
		m.total = msg.Summary.TotalDiscovered
		// The run summary is printed by the CLI once the program exits.
		cmds = append(cmds, tea.Quit)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	if m.quitting {
		return "canceling...\n"
	}
	if !m.initialized {
		return "starting...\n"
	}

	headerLeft := fmt.Sprintf("pdfdistill %s", m.version)
	if m.runID != "" {
		headerLeft += "  run " + shortID(m.runID)
	}
	headerRight := m.phase
	if !m.done {
		headerRight = m.spinner.View() + " " + m.phase
	}
	header := headerStyle.Width(m.width).Render(joinEdges(m.width, headerLeft, headerRight))

	elapsed := time.Since(m.startTime).Round(100 * time.Millisecond)
	footerLeft := fmt.Sprintf("converted %d | skipped %d | failed %d | total %d | %s",
		m.converted, m.skipped, m.failed, m.total, elapsed)
	footer := footerStyle.Width(m.width).Render(joinEdges(m.width, footerLeft, "q: quit"))

	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View(), footer)
}

func (m *Model) refreshList() tea.Cmd {
	items := make([]list.Item, len(m.items))
	for i, item := range m.items {
		items[i] = item
	}
	return m.list.SetItems(items)
}

func (m *Model) countTerminal(status distill.Status) {
	switch status {
	case distill.StatusConverted:
		m.converted++
	case distill.StatusSkipped:
		m.skipped++
	case distill.StatusFailed:
		m.failed++
	}
}

func isTerminal(status distill.Status) bool {
	switch status {
	case distill.StatusConverted, distill.StatusSkipped, distill.StatusFailed:
		return true
	}
	return false
}

// joinEdges pins left and right text to the edges of a line of width w.
func joinEdges(w int, left, right string) string {
	gap := w - lipgloss.Width(left) - lipgloss.Width(right)
	center := ""
	if gap > 0 {
		center = lipgloss.PlaceHorizontal(gap, lipgloss.Center, " ")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, center, right)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// list.Item implementation.

func (i fileItem) FilterValue() string { return i.path }
func (i fileItem) Title() string       { return i.path }

func (i fileItem) Description() string {
	var style lipgloss.Style
	icon := " "
	detail := ""
	switch i.status {
	case distill.StatusConverted:
		style, icon = statusStyleConverted, "+"
		detail = formatDuration(i.duration)
	case distill.StatusFailed:
		style, icon = statusStyleFailed, "x"
		detail = string(i.reason)
	case distill.StatusSkipped:
		style, icon = statusStyleSkipped, "s"
		detail = string(i.reason)
	case distill.StatusRunning:
		style, icon = statusStyleRunning, ">"
	default:
		style = statusStylePending
	}
	return fmt.Sprintf("%s %s", style.Render("["+icon+"]"), detail)
}

func formatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return ""
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// Styles.

const (
	colorHeaderFg = lipgloss.Color("252")
	colorHeaderBg = lipgloss.Color("62")

	colorFooterFg = lipgloss.Color("252")
	colorFooterBg = lipgloss.Color("56")

	colorNormalFg     = lipgloss.Color("250")
	colorNormalDescFg = lipgloss.Color("244")

	colorSelectedFg     = lipgloss.Color("255")
	colorSelectedBg     = lipgloss.Color("56")
	colorSelectedDescFg = lipgloss.Color("248")

	colorConverted = lipgloss.Color("40")
	colorFailed    = lipgloss.Color("196")
	colorSkipped   = lipgloss.Color("214")
	colorPending   = lipgloss.Color("244")
	colorRunning   = lipgloss.Color("205")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeaderFg).
			Background(colorHeaderBg).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorFooterFg).
			Background(colorFooterBg).
			Padding(0, 1)

	statusStyleConverted = lipgloss.NewStyle().Foreground(colorConverted)
	statusStyleFailed    = lipgloss.NewStyle().Foreground(colorFailed)
	statusStyleSkipped   = lipgloss.NewStyle().Foreground(colorSkipped)
	statusStylePending   = lipgloss.NewStyle().Foreground(colorPending)
	statusStyleRunning   = lipgloss.NewStyle().Foreground(colorRunning)
)
