package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"thunderdash/internal/dashboard"
	"thunderdash/internal/tui/components"
	"thunderdash/internal/tui/styles"
)

// DashboardView renders the control panel: status labels, progress and the three controls.
type DashboardView struct {
	Panel    *dashboard.Panel
	Viewport viewport.Model
	Progress progress.Model
	Rate     components.Sparkline

	// last snapshot fed to the sparkline
	seen dashboard.Labels

	Width  int
	Height int
}

func NewDashboardView(panel *dashboard.Panel, width, height int) DashboardView {
	prog := progress.New(
		progress.WithGradient("#7D56F4", "#04B575"),
		progress.WithWidth(max(width-10, 10)),
		progress.WithoutPercentage(),
	)

	return DashboardView{
		Panel:    panel,
		Viewport: viewport.New(max(width-6, 0), max(height-8, 0)),
		Progress: prog,
		Rate:     components.NewSparkline(60, "Iterations / poll", styles.Value),
		Width:    width,
		Height:   height,
	}
}

func (m DashboardView) Init() tea.Cmd {
	return nil
}

// Sync picks up whatever the panel changed since the last call.
func (m DashboardView) Sync() (DashboardView, tea.Cmd) {
	labels := m.Panel.Labels()
	if labels == m.seen {
		return m, nil
	}
	if labels.Iterations < m.seen.Iterations {
		// a new job was loaded
		m.Rate.Reset()
	} else if labels.Elapsed > m.seen.Elapsed {
		m.Rate.Add(float64(labels.Iterations - m.seen.Iterations))
	}
	m.seen = labels
	return m, m.Progress.SetPercent(labels.Percent / 100)
}

func (m DashboardView) Update(msg tea.Msg) (DashboardView, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = max(msg.Width-10, 10)
		m.Viewport.Width = max(msg.Width-6, 0)
		m.Viewport.Height = max(msg.Height-8, 0)
		m.Rate.Width = max(msg.Width-16, 10)

	case progress.FrameMsg:
		newModel, cmd := m.Progress.Update(msg)
		if newModel, ok := newModel.(progress.Model); ok {
			m.Progress = newModel
		}
		cmds = append(cmds, cmd)
	}

	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m DashboardView) View() string {
	s := strings.Builder{}
	labels := m.Panel.Labels()

	if m.Panel.JobID() == "" {
		s.WriteString(styles.Subtle.Render("No job loaded. Create one on the New Job tab (Ctrl+N)."))
		m.Viewport.SetContent(styles.Panel.Width(max(m.Width-6, 0)).Render(s.String()))
		return m.Viewport.View()
	}

	timer := fmt.Sprintf("%s / %s",
		dashboard.FormatClock(labels.Elapsed),
		dashboard.FormatClock(labels.Elapsed+labels.Remaining))
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.Title.Render("⚡ Job "+string(m.Panel.JobID())),
		lipgloss.NewStyle().MarginLeft(2).Foreground(styles.ColorSubtle).Render(timer),
		lipgloss.NewStyle().MarginLeft(4).Foreground(styles.ColorPrimary).Bold(true).Render("["+labels.Status+"]"),
	)
	s.WriteString(header)
	s.WriteString("\n\n")

	s.WriteString(m.Progress.View())
	s.WriteString(fmt.Sprintf(" %3.0f%%", labels.Percent))
	s.WriteString("\n\n")

	row1 := lipgloss.JoinHorizontal(lipgloss.Top,
		MakeCard("Elapsed", styles.Value.Render(dashboard.FormatClock(labels.Elapsed))),
		MakeCard("Remaining", styles.Value.Render(dashboard.FormatClock(labels.Remaining))),
		MakeCard("Iterations", styles.Value.Render(fmt.Sprintf("%d", labels.Iterations))),
		MakeCard("Transferred", styles.Value.Render(dashboard.FormatBytes(labels.BytesTransferred))),
	)
	s.WriteString(row1)
	s.WriteString("\n\n")

	s.WriteString(m.Rate.View())
	s.WriteString("\n\n")

	s.WriteString(RenderControls(m.Panel.Controls(), m.Panel.Pending()))
	s.WriteString("\n")

	if err := m.Panel.LastError(); err != nil {
		s.WriteString("\n")
		s.WriteString(styles.Error.Render("✗ " + err.Error()))
		s.WriteString("\n")
	}

	content := styles.Panel.Width(max(m.Width-6, 0)).Render(s.String())
	m.Viewport.SetContent(content)

	return m.Viewport.View()
}

// RenderControls draws Start, Pause/Resume and Stop with their enabled state.
func RenderControls(c dashboard.Controls, pending bool) string {
	button := func(key, label string, enabled bool) string {
		if enabled && !pending {
			return styles.ButtonEnabled.Render(key + " " + label)
		}
		return styles.ButtonDisabled.Render(key + " " + label)
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		button("^R", "Start", c.StartEnabled),
		button("^P", c.PauseLabel, c.PauseEnabled),
		button("^S", "Stop", c.StopEnabled),
	)
	if pending {
		row += styles.Subtle.Render("  waiting for master…")
	}
	return row
}

func MakeCard(title, value string) string {
	return styles.Box.Width(18).Align(lipgloss.Center).Render(
		fmt.Sprintf("%s\n%s", styles.Subtle.Render(title), value),
	)
}
