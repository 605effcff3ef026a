package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thunderdash/internal/api"
	"thunderdash/internal/dashboard"
	"thunderdash/internal/tui/views"
)

type fakeBackend struct {
	mu        sync.Mutex
	created   []api.JobSpec
	createErr error
	hbErr     error
}

func (f *fakeBackend) CreateJob(_ context.Context, spec api.JobSpec) (api.JobID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, spec)
	return "job-1", f.createErr
}

func (f *fakeBackend) StartJob(context.Context, api.JobID) error  { return nil }
func (f *fakeBackend) PauseJob(context.Context, api.JobID) error  { return nil }
func (f *fakeBackend) ResumeJob(context.Context, api.JobID) error { return nil }
func (f *fakeBackend) StopJob(context.Context, api.JobID) error   { return nil }

func (f *fakeBackend) JobStatus(context.Context, api.JobID) (api.JobStatus, error) {
	return api.JobStatus{State: api.JobStateRunning}, nil
}

func (f *fakeBackend) JobResults(context.Context, api.JobID, bool) ([]byte, string, error) {
	return []byte(`{"results_byTime": {"0": {}, "1": {"requestsPerSec": 5, "responseTime": 0.01}, "2": {"requestsPerSec": 15, "responseTime": 0.02}}}`), "200 OK", nil
}

func (f *fakeBackend) Heartbeat(context.Context) error { return f.hbErr }

// collect runs cmd and returns the messages it produces. Commands that do not answer
// promptly are timers and are dropped.
func collect(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(100 * time.Millisecond):
		return nil
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(t, c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

// settle feeds every message cmd produces back into the model until nothing is left.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := collect(t, cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		var next tea.Cmd
		m, next = update(t, m, msg)
		queue = append(queue, collect(t, next)...)
	}
	return m
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func newTestModel(t *testing.T, backend *fakeBackend) Model {
	t.Helper()
	panel := dashboard.NewPanel(backend, dashboard.WithPollInterval(time.Hour))
	m := NewModel(backend, panel, zerolog.Nop())
	m.ExportDir = t.TempDir()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func TestCreateJobFromForm(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend)
	require.Equal(t, ViewNewJob, m.CurrentView)

	m, cmd := update(t, m, key(tea.KeyCtrlN))
	assert.True(t, m.Creating)
	m = settle(t, m, cmd)

	require.Len(t, backend.created, 1)
	assert.Equal(t, views.DefaultSpec.URL, backend.created[0].URL)
	assert.Equal(t, api.JobID("job-1"), m.Panel.JobID())
	assert.Equal(t, ViewDashboard, m.CurrentView)
	assert.False(t, m.Creating)
	assert.Contains(t, m.StatusMsg, "job-1")
}

func TestCreateJobRejectsInvalidForm(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend)
	m.FormView.Inputs[views.FieldDuration].SetValue("soon")

	m, _ = update(t, m, key(tea.KeyCtrlN))

	assert.Empty(t, backend.created)
	assert.Contains(t, m.StatusMsg, "Invalid job")
	assert.False(t, m.Creating)
}

func TestCreateJobFailure(t *testing.T) {
	backend := &fakeBackend{createErr: errors.New("master down")}
	m := newTestModel(t, backend)

	m, cmd := update(t, m, key(tea.KeyCtrlN))
	m = settle(t, m, cmd)

	assert.Equal(t, api.JobID(""), m.Panel.JobID())
	assert.Equal(t, ViewNewJob, m.CurrentView)
	assert.Contains(t, m.StatusMsg, "master down")
}

func TestJobLifecycleDrivesTabs(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, cmd := update(t, m, key(tea.KeyCtrlN))
	m = settle(t, m, cmd)

	m, cmd = update(t, m, key(tea.KeyCtrlR))
	m = settle(t, m, cmd)
	assert.Equal(t, dashboard.Running, m.Panel.State())
	assert.False(t, m.Enabled[ViewNewJob], "new job tab is locked while the job runs")

	m.CurrentView = ViewResults
	m.cycle(1)
	assert.Equal(t, ViewDashboard, m.CurrentView, "disabled tab is skipped")

	m, cmd = update(t, m, key(tea.KeyCtrlS))
	m = settle(t, m, cmd)

	assert.Equal(t, dashboard.Complete, m.Panel.State())
	assert.True(t, m.Enabled[ViewNewJob])
	assert.Equal(t, ViewResults, m.CurrentView)
	assert.True(t, m.ResultsView.Ready)
	assert.Equal(t, 15.0, m.ResultsView.Throughput.YMax)
}

func TestFinalizeResetsForm(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, cmd := update(t, m, key(tea.KeyCtrlN))
	m = settle(t, m, cmd)
	m.FormView.Inputs[views.FieldURL].SetValue("http://elsewhere")

	m, _ = update(t, m, dashboard.ResetNewJobMsg{})
	assert.Equal(t, views.DefaultSpec.URL, m.FormView.Inputs[views.FieldURL].Value())
}

func TestRefusedControlShowsStatus(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, cmd := update(t, m, key(tea.KeyCtrlS))
	assert.NotNil(t, cmd)
	assert.Contains(t, m.StatusMsg, dashboard.ErrNoJob.Error())
}

func TestExport(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = update(t, m, key(tea.KeyCtrlE))
	assert.Equal(t, "No results to export yet.", m.StatusMsg)

	m, cmd := update(t, m, key(tea.KeyCtrlN))
	m = settle(t, m, cmd)
	m, cmd = update(t, m, key(tea.KeyCtrlR))
	m = settle(t, m, cmd)
	m, cmd = update(t, m, key(tea.KeyCtrlS))
	m = settle(t, m, cmd)

	m, _ = update(t, m, key(tea.KeyCtrlE))
	assert.Contains(t, m.StatusMsg, "Exported to")

	csvs, err := filepath.Glob(filepath.Join(m.ExportDir, "thunderdash_job-1_*.csv"))
	require.NoError(t, err)
	require.Len(t, csvs, 1)
	data, err := os.ReadFile(csvs[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "requestsPerSec")
}

func TestHeartbeatWarning(t *testing.T) {
	m := newTestModel(t, &fakeBackend{hbErr: errors.New("connection refused")})
	m = settle(t, m, m.heartbeat())
	assert.Contains(t, m.StatusMsg, "unreachable")
}

func TestViewRendersTabs(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	view := m.View()
	for _, tab := range m.MenuItems {
		assert.Contains(t, view, tab)
	}
	assert.Contains(t, view, "Create")
}
