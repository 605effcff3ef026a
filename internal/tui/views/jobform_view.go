package views

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"thunderdash/internal/api"
	"thunderdash/internal/tui/styles"
)

// Field Indices
const (
	FieldURL = iota
	FieldProfile
	FieldDuration
	FieldClientFunction
	FieldTransferLimit
	FieldStatsInterval
	FieldTimeout
	fieldCount
)

// DefaultSpec is what the form shows when it is opened or reset.
var DefaultSpec = api.JobSpec{
	URL:           "http://localhost:8080/",
	Profile:       api.ProfileBenchmark,
	Duration:      60,
	StatsInterval: 1,
	Timeout:       30,
}

type JobFormView struct {
	Inputs         []textinput.Model
	ClientFunction textarea.Model
	Focus          int

	Viewport viewport.Model

	Width  int
	Height int
}

func NewJobFormView(initial api.JobSpec) JobFormView {
	inputs := make([]textinput.Model, fieldCount)

	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].PromptStyle = styles.Subtle
		inputs[i].TextStyle = styles.Subtle
		inputs[i].Width = 10
	}

	inputs[FieldURL].Placeholder = "http://localhost:8080"
	inputs[FieldURL].Prompt = "URL: "
	inputs[FieldURL].Width = 40

	inputs[FieldProfile].Prompt = "Profile (Space): "

	inputs[FieldDuration].Prompt = "Duration (s): "

	inputs[FieldTransferLimit].Placeholder = "0 = unlimited"
	inputs[FieldTransferLimit].Prompt = "Transfer limit (bytes): "
	inputs[FieldTransferLimit].Width = 14

	inputs[FieldStatsInterval].Prompt = "Stats interval (s): "

	inputs[FieldTimeout].Prompt = "Timeout (s): "

	fn := textarea.New()
	fn.Placeholder = "function(client) { ... }"
	fn.SetWidth(40)
	fn.SetHeight(5)
	fn.Prompt = ""

	m := JobFormView{
		Inputs:         inputs,
		ClientFunction: fn,
		Viewport:       viewport.New(0, 0),
	}
	m.fill(initial)
	m, _ = m.focusCmd()
	return m
}

func (m *JobFormView) fill(spec api.JobSpec) {
	m.Inputs[FieldURL].SetValue(spec.URL)
	m.Inputs[FieldProfile].SetValue(spec.Profile.String())
	m.Inputs[FieldDuration].SetValue(strconv.Itoa(spec.Duration))
	m.Inputs[FieldTransferLimit].SetValue(strconv.FormatInt(spec.TransferLimit, 10))
	m.Inputs[FieldStatsInterval].SetValue(strconv.Itoa(spec.StatsInterval))
	m.Inputs[FieldTimeout].SetValue(strconv.Itoa(spec.Timeout))
	m.ClientFunction.SetValue(spec.ClientFunction)
}

// Reset puts the form back to its defaults, ready for the next job.
func (m JobFormView) Reset() JobFormView {
	m.fill(DefaultSpec)
	m.Focus = FieldURL
	m, _ = m.focusCmd()
	return m
}

func (m JobFormView) Init() tea.Cmd {
	return textinput.Blink
}

func (m JobFormView) GetHelp() string {
	switch m.Focus {
	case FieldURL:
		return "The URL the job master will load.\nExample: http://localhost:8080/api/v1/health"
	case FieldProfile:
		return "Engine profile.\n• [BENCHMARK]: as fast as possible.\n• [HAMMER]: sustained load.\n• [DUMMY]: no traffic, for testing the master.\n\nPress [Space] to cycle."
	case FieldDuration:
		return "How long the job runs, in seconds.\nThe progress bar is measured against it."
	case FieldClientFunction:
		return "Optional client function the engine runs for every iteration.\n\nNavigation:\n• [Tab] Next Field\n• [Arrows] Line navigation"
	case FieldTransferLimit:
		return "Stop once this many bytes have been transferred.\n0 means no limit."
	case FieldStatsInterval:
		return "Width of each results bucket in seconds.\nOne chart point is plotted per bucket."
	case FieldTimeout:
		return "Per-request timeout in seconds."
	}
	return ""
}

func (m JobFormView) Update(msg tea.Msg) (JobFormView, tea.Cmd) {
	var cmds []tea.Cmd

	isNav := false
	dir := 0

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			isNav = true
			dir = 1
		case "shift+tab":
			isNav = true
			dir = -1
		case "down", "enter":
			if m.Focus == FieldClientFunction {
				break // multi-line
			}
			isNav = true
			dir = 1
		case "up":
			if m.Focus == FieldClientFunction {
				break
			}
			isNav = true
			dir = -1
		case " ":
			if m.Focus == FieldProfile {
				m.cycleProfile()
				return m, nil
			}
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Viewport.Width = msg.Width - 4
		m.Viewport.Height = msg.Height - 8
	}

	if isNav {
		m.Focus = (m.Focus + dir + fieldCount) % fieldCount
		var cmd tea.Cmd
		m, cmd = m.focusCmd()
		cmds = append(cmds, cmd)
	} else if m.Focus == FieldClientFunction {
		var cmd tea.Cmd
		m.ClientFunction, cmd = m.ClientFunction.Update(msg)
		cmds = append(cmds, cmd)
	} else if m.Focus != FieldProfile {
		var cmd tea.Cmd
		m.Inputs[m.Focus], cmd = m.Inputs[m.Focus].Update(msg)
		cmds = append(cmds, cmd)
	}

	var vpCmd tea.Cmd
	m.Viewport, vpCmd = m.Viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

func (m *JobFormView) cycleProfile() {
	p, err := api.ParseProfile(m.Inputs[FieldProfile].Value())
	if err != nil {
		p = api.ProfileDummy
	}
	m.Inputs[FieldProfile].SetValue(api.JobProfile((int(p) + 1) % 3).String())
}

func (m JobFormView) focusCmd() (JobFormView, tea.Cmd) {
	cmds := make([]tea.Cmd, 0)
	for i := range m.Inputs {
		if i == m.Focus {
			cmds = append(cmds, m.Inputs[i].Focus())
			m.Inputs[i].PromptStyle = styles.Active
			m.Inputs[i].TextStyle = styles.Text
		} else {
			m.Inputs[i].Blur()
			m.Inputs[i].PromptStyle = styles.Subtle
			m.Inputs[i].TextStyle = styles.Subtle
		}
	}

	if m.Focus == FieldClientFunction {
		cmds = append(cmds, m.ClientFunction.Focus())
	} else {
		m.ClientFunction.Blur()
	}

	return m, tea.Batch(cmds...)
}

func (m JobFormView) View() string {
	inputCol := strings.Builder{}
	inputCol.WriteString("\n")
	for i := 0; i < fieldCount; i++ {
		inputCol.WriteString(m.renderInput(i))
		inputCol.WriteString("\n")
	}

	helpCol := strings.Builder{}
	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.ColorBorder).
		Padding(1, 2).
		Width(45).
		Height(15)

	helpCol.WriteString(styles.Subtle.Bold(true).Render("Information"))
	helpCol.WriteString("\n\n")
	helpCol.WriteString(styles.Text.Foreground(styles.ColorSecondary).Render(m.GetHelp()))

	mainRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(55).Render(inputCol.String()),
		helpBox.Render(helpCol.String()),
	)

	m.Viewport.SetContent(mainRow)
	return m.Viewport.View()
}

func (m JobFormView) renderInput(idx int) string {
	style := styles.InputNormal
	if idx == m.Focus {
		style = styles.InputActive
	}
	if idx == FieldClientFunction {
		return style.Render("Client function:\n" + m.ClientFunction.View())
	}
	return style.Render(m.Inputs[idx].View())
}

// GetSpec reads the form into a job spec and validates it.
func (m JobFormView) GetSpec() (api.JobSpec, error) {
	profile, err := api.ParseProfile(m.Inputs[FieldProfile].Value())
	if err != nil {
		return api.JobSpec{}, err
	}
	spec := api.JobSpec{
		URL:            strings.TrimSpace(m.Inputs[FieldURL].Value()),
		Profile:        profile,
		ClientFunction: strings.TrimSpace(m.ClientFunction.Value()),
	}

	ints := []struct {
		field int
		name  string
		dst   *int
	}{
		{FieldDuration, "duration", &spec.Duration},
		{FieldStatsInterval, "stats interval", &spec.StatsInterval},
		{FieldTimeout, "timeout", &spec.Timeout},
	}
	for _, f := range ints {
		n, err := atoi(m.Inputs[f.field].Value())
		if err != nil {
			return api.JobSpec{}, errors.Wrapf(err, "invalid %s", f.name)
		}
		*f.dst = n
	}

	limit, err := atoi(m.Inputs[FieldTransferLimit].Value())
	if err != nil {
		return api.JobSpec{}, errors.Wrap(err, "invalid transfer limit")
	}
	spec.TransferLimit = int64(limit)

	return spec, spec.Validate()
}

// atoi treats an empty field as zero.
func atoi(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
