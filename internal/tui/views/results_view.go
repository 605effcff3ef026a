package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"thunderdash/internal/api"
	"thunderdash/internal/results"
	"thunderdash/internal/stats"
	"thunderdash/internal/tui/components"
	"thunderdash/internal/tui/styles"
)

// ResultsView shows the charts of a finished job and a summary of them.
type ResultsView struct {
	JobID      api.JobID
	Throughput results.ThroughputChart
	Latency    results.LatencyChart
	Summary    stats.Summary
	Ready      bool

	Table    table.Model
	Viewport viewport.Model

	Width  int
	Height int
}

func NewResultsView(width, height int) ResultsView {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Metric", Width: 26},
			{Title: "Value", Width: 14},
		}),
		table.WithHeight(10),
		table.WithFocused(true),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorBorder).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(styles.ColorText).
		Background(styles.ColorPrimary).
		Bold(false)
	t.SetStyles(ts)

	return ResultsView{
		Table:    t,
		Viewport: viewport.New(max(width-4, 0), max(height-8, 0)),
		Width:    width,
		Height:   height,
	}
}

// SetResults replaces what the view shows.
func (m ResultsView) SetResults(id api.JobID, tp results.ThroughputChart, lat results.LatencyChart, sum stats.Summary) ResultsView {
	m.JobID = id
	m.Throughput = tp
	m.Latency = lat
	m.Summary = sum
	m.Ready = true
	m.Table.SetRows(SummaryRows(sum))
	m.Table.GotoTop()
	return m
}

func (m ResultsView) Clear() ResultsView {
	m.JobID = ""
	m.Ready = false
	m.Throughput = results.ThroughputChart{}
	m.Latency = results.LatencyChart{}
	m.Summary = stats.Summary{}
	m.Table.SetRows(nil)
	return m
}

func SummaryRows(sum stats.Summary) []table.Row {
	return []table.Row{
		{"Buckets", fmt.Sprintf("%d", sum.Buckets)},
		{"Mean requests/sec", fmt.Sprintf("%.2f", sum.MeanRPS)},
		{"Peak requests/sec", fmt.Sprintf("%.2f", sum.PeakRPS)},
		{"P50 response (ms)", fmt.Sprintf("%.2f", sum.P50ResponseMs)},
		{"P90 response (ms)", fmt.Sprintf("%.2f", sum.P90ResponseMs)},
		{"P99 response (ms)", fmt.Sprintf("%.2f", sum.P99ResponseMs)},
		{"Max response (ms)", fmt.Sprintf("%.2f", sum.MaxResponseMs)},
		{"Mean connect (ms)", fmt.Sprintf("%.2f", sum.MeanConnectMs)},
		{"Mean first byte (ms)", fmt.Sprintf("%.2f", sum.MeanFirstByteMs)},
	}
}

func (m ResultsView) Update(msg tea.Msg) (ResultsView, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Viewport.Width = max(msg.Width-4, 0)
		m.Viewport.Height = max(msg.Height-8, 0)
	case tea.KeyMsg:
		// up/down move the table selection, paging scrolls the charts
		switch msg.String() {
		case "up", "down", "k", "j":
			var cmd tea.Cmd
			m.Table, cmd = m.Table.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m ResultsView) chartWidth() int {
	w := m.Width - 70
	if w < 30 {
		w = 30
	}
	return w
}

func (m ResultsView) View() string {
	s := strings.Builder{}

	if !m.Ready {
		s.WriteString(styles.Subtle.Render("Results appear here once a job completes."))
		m.Viewport.SetContent(s.String())
		return m.Viewport.View()
	}

	s.WriteString(styles.Title.Render("Results for job " + string(m.JobID)))
	s.WriteString("\n\n")

	tp := components.NewChart("Requests per second", m.Throughput.Lines(), m.Throughput.XMax, m.Throughput.YMax)
	tp.Width = m.chartWidth()
	lat := components.NewChart("Latency (ms)", m.Latency.Lines(), m.Latency.XMax, m.Latency.YMax)
	lat.Width = m.chartWidth()

	charts := lipgloss.JoinVertical(lipgloss.Left, tp.View(), "", lat.View())
	summary := styles.Box.Render(m.Table.View())

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, charts, "  ", summary))
	s.WriteString("\n")

	m.Viewport.SetContent(s.String())
	return m.Viewport.View()
}
