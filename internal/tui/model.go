// internal/tui/model.go
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const refreshInterval = 2 * time.Second

var (
	cyan    = lipgloss.Color("#00E5FF")
	red     = lipgloss.Color("#FF5555")
	muted   = lipgloss.Color("#6C7280")
	textCol = lipgloss.Color("#ECEFF4")

	titleStyle  = lipgloss.NewStyle().Foreground(cyan).Bold(true).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(muted).Padding(0, 1)
	errStyle    = lipgloss.NewStyle().Foreground(red).Padding(0, 1)
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted)
)

type tickMsg time.Time

type tokensMsg struct {
	rows []TokenRow
	err  error
}

// Model is the curve watch screen: a live table of every launched token.
type Model struct {
	client    *APIClient
	table     table.Model
	rows      []TokenRow
	lastFetch time.Time
	fetchErr  error
	quitting  bool
}

func NewModel(client *APIClient) Model {
	columns := []table.Column{
		{Title: "SYMBOL", Width: 10},
		{Title: "NAME", Width: 20},
		{Title: "PRICE", Width: 14},
		{Title: "MCAP", Width: 14},
		{Title: "PROGRESS", Width: 10},
		{Title: "STATUS", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Foreground(cyan).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(muted).
		BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#1B1D23")).
		Background(cyan)
	styles.Cell = styles.Cell.Foreground(textCol)
	t.SetStyles(styles)

	return Model{client: client, table: t}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshInterval)
		defer cancel()
		rows, err := m.client.FetchTokens(ctx)
		return tokensMsg{rows: rows, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		}

	case tickMsg:
		return m, tea.Batch(m.fetch(), tick())

	case tokensMsg:
		m.fetchErr = msg.err
		if msg.err == nil {
			m.rows = msg.rows
			m.lastFetch = time.Now()
			m.table.SetRows(toTableRows(msg.rows))
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 6)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func toTableRows(rows []TokenRow) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		status := "trading"
		if r.Complete {
			status = "migrated"
		}
		out = append(out, table.Row{
			r.Symbol,
			r.Name,
			r.Price,
			r.MarketCap,
			fmt.Sprintf("%.1f%%", r.Progress),
			status,
		})
	}
	return out
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := titleStyle.Render("CURVE WATCH")

	status := statusStyle.Render(fmt.Sprintf("%d tokens  refreshed %s  (r: refresh, q: quit)",
		len(m.rows), m.lastFetchLabel()))
	if m.fetchErr != nil {
		status = errStyle.Render("fetch error: " + m.fetchErr.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		borderStyle.Render(m.table.View()),
		status,
	)
}

func (m Model) lastFetchLabel() string {
	if m.lastFetch.IsZero() {
		return "never"
	}
	return m.lastFetch.Format("15:04:05")
}
