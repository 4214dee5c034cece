package ui

import (
	"botdash/internal/dashboard"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	headerHeight = 4
	helpHeight   = 1
	minPane      = 3
)

// Model is the Bubble Tea model for the live dashboard.
type Model struct {
	snapshot  dashboard.Snapshot
	trades    table.Model
	terminal  viewport.Model
	refresh   func()
	width     int
	height    int
	refreshes int
}

// NewModel creates a Model showing initial. refresh is called when the user
// asks for an immediate stats refresh.
func NewModel(initial dashboard.Snapshot, refresh func()) Model {
	if refresh == nil {
		refresh = func() {}
	}
	m := Model{
		trades:   NewTradeTable(),
		terminal: viewport.New(80, 10),
		refresh:  refresh,
	}
	return m.apply(initial)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.refreshes++
			m.refresh()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case BoardMsg:
		// Deliveries can arrive out of order; keep the newest.
		if msg.Snapshot.Version < m.snapshot.Version {
			return m, nil
		}
		return m.apply(msg.Snapshot), nil
	}

	var cmd tea.Cmd
	m.terminal, cmd = m.terminal.Update(msg)
	return m, cmd
}

func (m Model) apply(s dashboard.Snapshot) Model {
	m.snapshot = s
	m.trades.SetRows(TradeRows(s.Trades))
	m.terminal.SetContent(RenderTerminal(s.Terminal))
	m.terminal.GotoBottom()
	return m
}

// resize splits the space below the header between the table and the pane.
func (m *Model) resize() {
	avail := m.height - headerHeight - helpHeight
	if avail < 2*minPane {
		avail = 2 * minPane
	}
	tableHeight := avail / 2
	paneHeight := avail - tableHeight - 2 // pane border

	if paneHeight < 1 {
		paneHeight = 1
	}

	m.trades.SetWidth(m.width)
	m.trades.SetHeight(tableHeight)
	m.terminal.Width = max(m.width-2, 1)
	m.terminal.Height = paneHeight
	m.terminal.GotoBottom()
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Trading Bot Dashboard"))
	b.WriteString("\n")
	b.WriteString(RenderStats(m.snapshot.Stats))
	b.WriteString("\n")
	if len(m.snapshot.Trades) > 0 {
		last := m.snapshot.Trades[0]
		b.WriteString(fmt.Sprintf("Last trade %s %s %s\n", Literal(last.Pair), Literal(last.Status), PnLStyle(last.PnLClass).Render(last.PnL)))
	} else {
		b.WriteString(LabelStyle.Render("No trades yet") + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.trades.View())
	b.WriteString("\n")
	b.WriteString(PaneStyle.Render(m.terminal.View()))
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("r: refresh stats • q: quit"))

	return b.String()
}

// Snapshot returns the snapshot currently on screen.
func (m Model) Snapshot() dashboard.Snapshot {
	return m.snapshot
}

// Watch forwards every board update to p and returns a function that stops
// forwarding.
func Watch(board *dashboard.Board, p *tea.Program) (remove func()) {
	return board.AddObserver(dashboard.ObserverFunc(func(s dashboard.Snapshot) {
		p.Send(BoardMsg{Snapshot: s})
	}))
}

// Run shows the dashboard until the user quits or ctx is done.
func Run(ctx context.Context, board *dashboard.Board, refresh func()) error {
	p := tea.NewProgram(
		NewModel(board.Snapshot(), refresh),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	remove := Watch(board, p)
	defer remove()

	// Covers updates between the initial snapshot and Watch.
	go p.Send(BoardMsg{Snapshot: board.Snapshot()})

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// Shutdown signal, not a UI failure.
		return nil
	}
	return err
}
