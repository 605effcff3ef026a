package views

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thunderdash/internal/api"
	"thunderdash/internal/dashboard"
	"thunderdash/internal/results"
	"thunderdash/internal/stats"
)

func TestJobFormRoundTrip(t *testing.T) {
	want := api.JobSpec{
		URL:            "http://example.com/",
		Profile:        api.ProfileHammer,
		Duration:       120,
		ClientFunction: "function(c) {}",
		TransferLimit:  1 << 20,
		StatsInterval:  5,
		Timeout:        10,
	}
	got, err := NewJobFormView(want).GetSpec()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestJobFormValidation(t *testing.T) {
	m := NewJobFormView(DefaultSpec)
	m.Inputs[FieldURL].SetValue("  ")
	_, err := m.GetSpec()
	assert.Error(t, err)

	m = NewJobFormView(DefaultSpec)
	m.Inputs[FieldTransferLimit].SetValue("")
	spec, err := m.GetSpec()
	require.NoError(t, err)
	assert.Zero(t, spec.TransferLimit)

	m.Inputs[FieldStatsInterval].SetValue("1.5")
	_, err = m.GetSpec()
	assert.Error(t, err)
}

func TestJobFormReset(t *testing.T) {
	m := NewJobFormView(DefaultSpec)
	m.Inputs[FieldURL].SetValue("http://changed")
	m.Focus = FieldTimeout

	m = m.Reset()

	assert.Equal(t, DefaultSpec.URL, m.Inputs[FieldURL].Value())
	assert.Equal(t, FieldURL, m.Focus)
	spec, err := m.GetSpec()
	require.NoError(t, err)
	assert.Equal(t, DefaultSpec, spec)
}

func TestJobFormNavigationAndProfile(t *testing.T) {
	m := NewJobFormView(DefaultSpec)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, FieldProfile, m.Focus)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, "HAMMER", m.Inputs[FieldProfile].Value())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, "BENCHMARK", m.Inputs[FieldProfile].Value())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, FieldTimeout, m.Focus, "focus wraps around")
}

type idleBackend struct{}

func (idleBackend) CreateJob(context.Context, api.JobSpec) (api.JobID, error) { return "", nil }
func (idleBackend) StartJob(context.Context, api.JobID) error                 { return nil }
func (idleBackend) PauseJob(context.Context, api.JobID) error                 { return nil }
func (idleBackend) ResumeJob(context.Context, api.JobID) error                { return nil }
func (idleBackend) StopJob(context.Context, api.JobID) error                  { return nil }
func (idleBackend) JobStatus(context.Context, api.JobID) (api.JobStatus, error) {
	return api.JobStatus{}, nil
}
func (idleBackend) JobResults(context.Context, api.JobID, bool) ([]byte, string, error) {
	return nil, "", nil
}

func TestDashboardViewShowsPanel(t *testing.T) {
	panel := dashboard.NewPanel(idleBackend{})
	v := NewDashboardView(panel, 120, 40)
	assert.Contains(t, v.View(), "No job loaded")

	require.NoError(t, panel.LoadJob("job-9"))
	v, cmd := v.Sync()
	assert.NotNil(t, cmd)

	view := v.View()
	assert.Contains(t, view, "job-9")
	assert.Contains(t, view, "NEW")
	assert.Contains(t, view, "Start")
}

func TestRenderControls(t *testing.T) {
	paused := RenderControls(dashboard.ButtonsPaused.Controls(), false)
	assert.Contains(t, paused, "Resume")

	pending := RenderControls(dashboard.ButtonsRunning.Controls(), true)
	assert.Contains(t, pending, "waiting for master")
}

func TestResultsView(t *testing.T) {
	v := NewResultsView(140, 50)
	assert.Contains(t, v.View(), "once a job completes")

	tp := results.ThroughputChart{
		RequestsPerSec: results.Series{{X: 1, Y: 10}},
		Average:        results.Series{{X: 1, Y: 10}},
		XMax:           1,
		YMax:           10,
	}
	v = v.SetResults("job-3", tp, results.LatencyChart{}, stats.Summary{Buckets: 1, PeakRPS: 10})
	assert.True(t, v.Ready)
	assert.Len(t, v.Table.Rows(), 9)
	assert.Contains(t, v.View(), "job-3")

	v = v.Clear()
	assert.False(t, v.Ready)
	assert.Empty(t, v.Table.Rows())
}
