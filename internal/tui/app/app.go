package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"thunderdash/internal/api"
	"thunderdash/internal/dashboard"
	"thunderdash/internal/results"
	"thunderdash/internal/tui/styles"
	"thunderdash/internal/tui/views"
)

type ClearStatusMsg struct{}

func clearStatusCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(_ time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// View Enum
type ViewID int

const (
	ViewNewJob ViewID = iota
	ViewDashboard
	ViewResults
	viewCount
)

type jobCreatedMsg struct {
	id  api.JobID
	err error
}

type heartbeatMsg struct {
	err error
}

// Heartbeater is implemented by backends that can report whether the master is up.
type Heartbeater interface {
	Heartbeat(ctx context.Context) error
}

type Model struct {
	Backend api.Backend
	Panel   *dashboard.Panel
	Log     zerolog.Logger
	Timeout time.Duration
	// ExportDir is where Ctrl+E writes reports; empty means the working directory.
	ExportDir string

	// Layout
	Width  int
	Height int

	CurrentView ViewID
	MenuItems   []string
	Enabled     []bool

	FormView    views.JobFormView
	DashView    views.DashboardView
	ResultsView views.ResultsView

	Creating bool

	// Feedback
	StatusMsg string
}

func NewModel(backend api.Backend, panel *dashboard.Panel, log zerolog.Logger) Model {
	return Model{
		Backend:     backend,
		Panel:       panel,
		Log:         log.With().Str("component", "tui").Logger(),
		Timeout:     dashboard.DefaultRequestTimeout,
		CurrentView: ViewNewJob,
		MenuItems:   []string{"[1] New Job", "[2] Dashboard", "[3] Results"},
		Enabled:     []bool{true, true, true},
		FormView:    views.NewJobFormView(views.DefaultSpec),
		DashView:    views.NewDashboardView(panel, 0, 0),
		ResultsView: views.NewResultsView(0, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.FormView.Init(),
		m.heartbeat(),
	)
}

func (m Model) heartbeat() tea.Cmd {
	hb, ok := m.Backend.(Heartbeater)
	if !ok {
		return nil
	}
	timeout := m.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return heartbeatMsg{err: hb.Heartbeat(ctx)}
	}
}

func (m Model) createJob(spec api.JobSpec) tea.Cmd {
	backend, timeout := m.Backend, m.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		id, err := backend.CreateJob(ctx, spec)
		return jobCreatedMsg{id: id, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// the panel picks out its own messages
	cmds = append(cmds, m.Panel.Update(msg))

	switch msg := msg.(type) {
	case ClearStatusMsg:
		m.StatusMsg = ""
		return m, nil

	case heartbeatMsg:
		if msg.err != nil {
			m.Log.Warn().Err(msg.err).Msg("job master is not answering")
			cmds = append(cmds, m.setStatus("Job master unreachable: "+msg.err.Error()))
		}

	case jobCreatedMsg:
		m.Creating = false
		if msg.err != nil {
			m.Log.Error().Err(msg.err).Msg("create job failed")
			cmds = append(cmds, m.setStatus("Create failed: "+msg.err.Error()))
			break
		}
		if err := m.Panel.LoadJob(msg.id); err != nil {
			cmds = append(cmds, m.setStatus(err.Error()))
			break
		}
		m.ResultsView = m.ResultsView.Clear()
		m.CurrentView = ViewDashboard
		cmds = append(cmds, m.setStatus(fmt.Sprintf("Job %s created. Ctrl+R starts it.", msg.id)))

	case dashboard.EnableTabMsg:
		m.setEnabled(ViewID(msg.Index), true)

	case dashboard.ResetNewJobMsg:
		m.FormView = m.FormView.Reset()

	case dashboard.ChartsReadyMsg:
		tp, lat := m.Panel.Charts()
		m.ResultsView = m.ResultsView.SetResults(msg.JobID, tp, lat, m.Panel.Summary())
		m.CurrentView = ViewResults

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			return m, tea.Quit

		case "ctrl+d":
			m.CurrentView = ViewDashboard
			return m, nil

		case "ctrl+right":
			m.cycle(1)
			return m, nil
		case "ctrl+left":
			m.cycle(-1)
			return m, nil

		case "ctrl+n": // Create
			if m.CurrentView == ViewNewJob && !m.Creating {
				spec, err := m.FormView.GetSpec()
				if err != nil {
					return m, m.setStatus("Invalid job: " + err.Error())
				}
				m.Creating = true
				m.StatusMsg = "Creating job..."
				return m, m.createJob(spec)
			}
			return m, nil

		case "ctrl+r": // Start
			return m.press(m.Panel.Start)
		case "ctrl+p": // Pause / Resume
			return m.press(m.Panel.TogglePause)
		case "ctrl+s": // Stop
			return m.press(m.Panel.Stop)
		case "ctrl+l": // Reload results
			return m.press(m.Panel.FetchResults)

		case "ctrl+e": // Export
			return m, m.export()
		}

		// not global: the active view gets it
		var cmd tea.Cmd
		switch m.CurrentView {
		case ViewNewJob:
			m.FormView, cmd = m.FormView.Update(msg)
		case ViewDashboard:
			m.DashView, cmd = m.DashView.Update(msg)
		case ViewResults:
			m.ResultsView, cmd = m.ResultsView.Update(msg)
		}
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		content := tea.WindowSizeMsg{Width: m.Width, Height: m.Height - 7}

		var cmd tea.Cmd
		m.FormView, cmd = m.FormView.Update(content)
		cmds = append(cmds, cmd)
		m.ResultsView, cmd = m.ResultsView.Update(content)
		cmds = append(cmds, cmd)
		m.DashView, cmd = m.DashView.Update(content)
		cmds = append(cmds, cmd)
		return m.sync(cmds)

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.DashView, cmd = m.DashView.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	// cursor blinks and the like belong to the form
	if m.CurrentView == ViewNewJob {
		var cmd tea.Cmd
		m.FormView, cmd = m.FormView.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m.sync(cmds)
}

// press runs one of the panel's controls and reports a refusal in the status line.
func (m Model) press(control func() (tea.Cmd, error)) (tea.Model, tea.Cmd) {
	cmd, err := control()
	if err != nil {
		return m, m.setStatus(err.Error())
	}
	return m.sync([]tea.Cmd{cmd})
}

// sync brings the views and tabs in line with the panel.
func (m Model) sync(cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.DashView, cmd = m.DashView.Sync()
	cmds = append(cmds, cmd)

	switch m.Panel.State() {
	case dashboard.Running, dashboard.Paused, dashboard.Stopping:
		m.setEnabled(ViewNewJob, false)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) setEnabled(v ViewID, enabled bool) {
	if v < 0 || v >= viewCount {
		return
	}
	m.Enabled[v] = enabled
	if !enabled && m.CurrentView == v {
		m.CurrentView = ViewDashboard
	}
}

// cycle moves to the next enabled tab in direction dir.
func (m *Model) cycle(dir int) {
	next := m.CurrentView
	for i := 0; i < int(viewCount); i++ {
		next = (next + ViewID(dir) + viewCount) % viewCount
		if m.Enabled[next] {
			m.CurrentView = next
			return
		}
	}
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.StatusMsg = text
	return clearStatusCmd()
}

func (m *Model) export() tea.Cmd {
	if !m.Panel.ChartsReady() {
		return m.setStatus("No results to export yet.")
	}
	ts := time.Now().Format("20060102-150405")
	base := filepath.Join(m.ExportDir, fmt.Sprintf("thunderdash_%s_%s", m.Panel.JobID(), ts))

	report := m.Panel.Report()
	if err := results.ExportCSV(report, base+".csv"); err != nil {
		return m.setStatus(fmt.Sprintf("Export Failed: %v", err))
	}
	if err := results.ExportJSON(report, base+".json"); err != nil {
		return m.setStatus(fmt.Sprintf("Export Failed: %v", err))
	}
	m.Log.Info().Str("job", string(m.Panel.JobID())).Str("path", base).Msg("results exported")
	return m.setStatus(fmt.Sprintf("Exported to %s.{csv,json}", base))
}

func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}

	nav := strings.Builder{}
	for i, item := range m.MenuItems {
		switch {
		case !m.Enabled[i]:
			nav.WriteString(styles.TabDisabled.Render(item))
		case ViewID(i) == m.CurrentView:
			nav.WriteString(styles.TabActive.Render(item))
		default:
			nav.WriteString(styles.TabBase.Render(item))
		}
	}
	navBar := styles.FooterBase.Width(m.Width).Render(nav.String())

	contentStr := ""
	switch m.CurrentView {
	case ViewNewJob:
		contentStr = m.FormView.View()
	case ViewDashboard:
		contentStr = m.DashView.View()
	case ViewResults:
		contentStr = m.ResultsView.View()
	}

	content := styles.Panel.Width(m.Width - 2).Height(m.Height - 6).Render(contentStr)

	keys1 := []string{
		styles.RenderKey("Ctrl+<->", "View"),
		styles.RenderKey("Tab", "Field"),
		styles.RenderKey("Ctrl+D", "Dash"),
		styles.RenderKey("Ctrl+Q", "Quit"),
	}

	keys2 := []string{
		styles.RenderKey("Ctrl+N", "Create"),
		styles.RenderKey("Ctrl+R", "Start"),
		styles.RenderKey("Ctrl+P", m.Panel.Controls().PauseLabel),
		styles.RenderKey("Ctrl+S", "Stop"),
	}

	keys3 := []string{
		styles.RenderKey("Ctrl+L", "Reload results"),
		styles.RenderKey("Ctrl+E", "Export"),
	}

	helpRow1 := styles.FooterBase.Width(m.Width).Render(strings.Join(keys1, "   "))
	helpRow2 := styles.FooterBase.Width(m.Width).Render(strings.Join(keys2, "   "))
	helpRow3 := styles.FooterBase.Width(m.Width).Render(strings.Join(keys3, "   "))

	footer := lipgloss.JoinVertical(lipgloss.Left, helpRow1, helpRow2, helpRow3)

	if m.StatusMsg != "" {
		status := styles.Box.BorderForeground(styles.ColorHighlight).Render(m.StatusMsg)
		return lipgloss.JoinVertical(lipgloss.Left, navBar, content, status, footer)
	}

	return lipgloss.JoinVertical(lipgloss.Left, navBar, content, footer)
}
