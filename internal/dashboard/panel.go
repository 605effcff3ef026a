package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"thunderdash/internal/api"
	"thunderdash/internal/results"
	"thunderdash/internal/stats"
)

const (
	DefaultPollInterval   = time.Second
	DefaultRequestTimeout = 10 * time.Second
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrBusy              = errors.New("a job command is already in flight")
	ErrNoJob             = errors.New("no job loaded")
)

// NewJobTab is the navigation index re-enabled when a job finishes.
const NewJobTab = 0

type action int

const (
	actionNone action = iota
	actionStart
	actionPause
	actionResume
	actionStop
	actionAttach
)

func (a action) String() string {
	return [...]string{"none", "start", "pause", "resume", "stop", "attach"}[a]
}

// Panel drives one job through start, pause, resume and stop, polls its status while it
// runs and turns the final results into charts. All methods must be called from the
// program's event loop; backend calls run inside the returned commands.
type Panel struct {
	backend  api.Backend
	log      zerolog.Logger
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	jobID   api.JobID
	state   State
	buttons ButtonState
	pending action
	// state to fall back to if a stop is rejected
	prior State

	polling bool
	pollSeq int
	// a status request is out; ticks that fire meanwhile are deferred until it answers
	statusInflight bool
	tickDeferred   bool

	finalized bool
	labels    Labels
	lastErr   error

	chartsReady bool
	throughput  results.ThroughputChart
	latency     results.LatencyChart
	summary     stats.Summary
}

type Option func(*Panel)

func WithPollInterval(d time.Duration) Option {
	return func(p *Panel) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(p *Panel) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(p *Panel) {
		p.log = log.With().Str("component", "control_panel").Logger()
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Panel) {
		p.now = now
	}
}

func NewPanel(backend api.Backend, opts ...Option) *Panel {
	p := &Panel{
		backend:  backend,
		log:      zerolog.Nop(),
		interval: DefaultPollInterval,
		timeout:  DefaultRequestTimeout,
		now:      time.Now,
		labels:   initialLabels(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadJob points the panel at a new job. Only allowed while no job is live.
func (p *Panel) LoadJob(id api.JobID) error {
	if p.state != Idle && p.state != Complete {
		return errors.Wrapf(ErrInvalidTransition, "load job while %s", p.state)
	}
	if p.pending != actionNone {
		return ErrBusy
	}
	p.jobID = id
	p.state = Idle
	p.buttons = ButtonsStart
	p.suspendPolling()
	p.statusInflight = false
	p.finalized = false
	p.labels = initialLabels()
	p.lastErr = nil
	p.chartsReady = false
	p.throughput = results.ThroughputChart{}
	p.latency = results.LatencyChart{}
	p.summary = stats.Summary{}
	p.log.Info().Str("job", string(id)).Msg("job loaded")
	return nil
}

func (p *Panel) Start() (tea.Cmd, error) {
	if err := p.precondition(actionStart, Idle); err != nil {
		return nil, err
	}
	return p.dispatch(actionStart, p.backend.StartJob), nil
}

func (p *Panel) Pause() (tea.Cmd, error) {
	if err := p.precondition(actionPause, Running); err != nil {
		return nil, err
	}
	return p.dispatch(actionPause, p.backend.PauseJob), nil
}

func (p *Panel) Resume() (tea.Cmd, error) {
	if err := p.precondition(actionResume, Paused); err != nil {
		return nil, err
	}
	return p.dispatch(actionResume, p.backend.ResumeJob), nil
}

// TogglePause presses the pause control, whichever label it currently carries.
func (p *Panel) TogglePause() (tea.Cmd, error) {
	if p.buttons.Controls().PauseLabel == ResumeLabel {
		return p.Resume()
	}
	return p.Pause()
}

func (p *Panel) Stop() (tea.Cmd, error) {
	if err := p.precondition(actionStop, Running, Paused); err != nil {
		return nil, err
	}
	p.prior = p.state
	p.state = Stopping
	return p.dispatch(actionStop, p.backend.StopJob), nil
}

// Attach adopts the state of a job that was started elsewhere, as reported by one status call.
func (p *Panel) Attach() (tea.Cmd, error) {
	if err := p.precondition(actionAttach, Idle); err != nil {
		return nil, err
	}
	p.pending = actionAttach
	jobID, timeout, backend := p.jobID, p.timeout, p.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		status, err := backend.JobStatus(ctx, jobID)
		return attachMsg{jobID: jobID, status: status, err: err}
	}, nil
}

// FetchResults asks for the final results again, for when the first fetch failed.
func (p *Panel) FetchResults() (tea.Cmd, error) {
	if p.jobID == "" {
		return nil, ErrNoJob
	}
	if p.state != Complete {
		return nil, errors.Wrapf(ErrInvalidTransition, "fetch results while %s", p.state)
	}
	return p.fetchResults(), nil
}

// Finalize winds the panel down once the job is over: every control is disabled, polling is
// suspended, and the first call also fetches the results and re-enables navigation.
// Calling it again leaves the panel as it is.
func (p *Panel) Finalize() tea.Cmd {
	p.state = Complete
	p.buttons = ButtonsDisabled
	p.suspendPolling()
	if p.finalized {
		return nil
	}
	p.finalized = true
	p.log.Info().Str("job", string(p.jobID)).Msg("job complete")

	return tea.Batch(
		p.fetchResults(),
		emit(EnableTabMsg{Index: NewJobTab}),
		emit(ResetNewJobMsg{}),
	)
}

// Update handles the panel's own messages and ignores everything else.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case commandMsg:
		if msg.jobID != p.jobID {
			return nil
		}
		return p.acknowledge(msg)
	case attachMsg:
		if msg.jobID != p.jobID {
			return nil
		}
		return p.adopt(msg)
	case pollTickMsg:
		return p.tick(msg)
	case statusMsg:
		return p.receiveStatus(msg)
	case resultsMsg:
		return p.receiveResults(msg)
	}
	return nil
}

func (p *Panel) precondition(a action, allowed ...State) error {
	if p.jobID == "" {
		return ErrNoJob
	}
	if p.pending != actionNone {
		return errors.Wrapf(ErrBusy, "%s while %s is pending", a, p.pending)
	}
	for _, s := range allowed {
		if p.state == s {
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidTransition, "%s while %s", a, p.state)
}

func (p *Panel) dispatch(a action, call func(context.Context, api.JobID) error) tea.Cmd {
	p.pending = a
	jobID, timeout := p.jobID, p.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return commandMsg{jobID: jobID, action: a, err: call(ctx, jobID)}
	}
}

func (p *Panel) acknowledge(msg commandMsg) tea.Cmd {
	p.pending = actionNone
	if msg.err != nil {
		p.report(msg.action.String(), msg.err)
		if msg.action == actionStop && p.state == Stopping {
			p.state = p.prior
		}
		return nil
	}
	p.lastErr = nil

	// a poll may have seen the job finish while the command was in flight
	if p.state == Complete {
		return nil
	}

	switch msg.action {
	case actionStart:
		p.state = Running
		p.buttons = ButtonsRunning
		return p.beginPolling()
	case actionPause:
		p.state = Paused
		p.buttons = ButtonsPaused
		p.suspendPolling()
	case actionResume:
		p.state = Running
		p.buttons = ButtonsRunning
		return p.beginPolling()
	case actionStop:
		return p.Finalize()
	}
	return nil
}

func (p *Panel) adopt(msg attachMsg) tea.Cmd {
	p.pending = actionNone
	if msg.err != nil {
		p.report(actionAttach.String(), msg.err)
		return nil
	}
	p.lastErr = nil
	p.labels = labelsFor(msg.status)

	switch msg.status.State {
	case api.JobStateRunning:
		p.state = Running
		p.buttons = ButtonsRunning
		return p.beginPolling()
	case api.JobStatePaused:
		p.state = Paused
		p.buttons = ButtonsPaused
	case api.JobStateComplete:
		return p.Finalize()
	}
	return nil
}

func (p *Panel) beginPolling() tea.Cmd {
	p.polling = true
	p.pollSeq++
	p.tickDeferred = false
	return p.scheduleTick(p.interval)
}

// suspendPolling keeps the poller registered but invalidates any tick already scheduled.
func (p *Panel) suspendPolling() {
	p.polling = false
	p.pollSeq++
	p.tickDeferred = false
}

func (p *Panel) pollCurrent(jobID api.JobID, seq int) bool {
	return p.polling && jobID == p.jobID && seq == p.pollSeq
}

func (p *Panel) scheduleTick(d time.Duration) tea.Cmd {
	jobID, seq := p.jobID, p.pollSeq
	return tea.Tick(d, func(time.Time) tea.Msg {
		return pollTickMsg{jobID: jobID, seq: seq}
	})
}

func (p *Panel) tick(msg pollTickMsg) tea.Cmd {
	if !p.pollCurrent(msg.jobID, msg.seq) {
		return nil
	}
	if p.statusInflight {
		p.tickDeferred = true
		return nil
	}
	p.statusInflight = true
	started := p.now()
	jobID, seq, timeout, backend := p.jobID, p.pollSeq, p.timeout, p.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		status, err := backend.JobStatus(ctx, jobID)
		return statusMsg{jobID: jobID, seq: seq, started: started, status: status, err: err}
	}
}

func (p *Panel) receiveStatus(msg statusMsg) tea.Cmd {
	if msg.jobID != p.jobID {
		return nil
	}
	p.statusInflight = false

	var cmds []tea.Cmd
	if msg.err != nil {
		p.report("poll", msg.err)
	} else {
		cmds = append(cmds, p.Apply(msg.status))
	}

	// next tick is measured from the start of this one
	if p.pollCurrent(msg.jobID, msg.seq) {
		wait := p.interval - p.now().Sub(msg.started)
		if wait < 0 {
			wait = 0
		}
		cmds = append(cmds, p.scheduleTick(wait))
	} else if p.tickDeferred && p.polling {
		// polling restarted while this request was out
		p.tickDeferred = false
		cmds = append(cmds, p.scheduleTick(0))
	}
	return tea.Batch(cmds...)
}

// Apply shows a status snapshot and finalizes the panel when the job reports completion.
func (p *Panel) Apply(status api.JobStatus) tea.Cmd {
	p.labels = labelsFor(status)
	if status.State == api.JobStateComplete {
		return p.Finalize()
	}
	return nil
}

func (p *Panel) fetchResults() tea.Cmd {
	jobID, timeout, backend := p.jobID, p.timeout, p.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		payload, statusText, err := backend.JobResults(ctx, jobID, false)
		return resultsMsg{jobID: jobID, payload: payload, statusText: statusText, err: err}
	}
}

func (p *Panel) receiveResults(msg resultsMsg) tea.Cmd {
	if msg.jobID != p.jobID {
		return nil
	}
	if msg.err != nil {
		p.report("results", msg.err)
		return nil
	}

	data, err := results.ParsePayload(msg.payload)
	switch {
	case errors.Is(err, results.ErrSkippedBuckets):
		p.log.Warn().Err(err).Str("job", string(p.jobID)).Msg("dropped unparsable result buckets")
	case err != nil:
		p.log.Warn().Err(err).Str("job", string(p.jobID)).Str("status", msg.statusText).
			Msg("results unusable, plotting nothing")
	}
	p.throughput, p.latency = results.Transform(data)
	p.summary = stats.Summarize(p.throughput, p.latency)
	p.chartsReady = true

	return emit(ChartsReadyMsg{JobID: p.jobID})
}

// report is the diagnostic sink for backend failures.
func (p *Panel) report(op string, err error) {
	p.lastErr = errors.Wrapf(err, "%s failed", op)
	p.log.Error().Err(err).Str("job", string(p.jobID)).Str("op", op).Msg("job master call failed")
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func (p *Panel) JobID() api.JobID       { return p.jobID }
func (p *Panel) State() State           { return p.state }
func (p *Panel) Buttons() ButtonState   { return p.buttons }
func (p *Panel) Controls() Controls     { return p.buttons.Controls() }
func (p *Panel) Labels() Labels         { return p.labels }
func (p *Panel) Polling() bool          { return p.polling }
func (p *Panel) Pending() bool          { return p.pending != actionNone }
func (p *Panel) LastError() error       { return p.lastErr }
func (p *Panel) ChartsReady() bool      { return p.chartsReady }
func (p *Panel) Summary() stats.Summary { return p.summary }

func (p *Panel) Charts() (results.ThroughputChart, results.LatencyChart) {
	return p.throughput, p.latency
}

// Report bundles the charts for export.
func (p *Panel) Report() results.Report {
	return results.Report{JobID: string(p.jobID), Throughput: p.throughput, Latency: p.latency}
}
