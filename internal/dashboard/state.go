package dashboard

import (
	"math"

	"thunderdash/internal/api"
)

// State is the panel's view of the job lifecycle.
type State int

const (
	Idle State = iota
	Running
	Paused
	Stopping
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopping:
		return "stopping"
	case Complete:
		return "complete"
	}
	return "invalid"
}

// ButtonState decides which of start, pause and stop are enabled.
type ButtonState int

const (
	ButtonsStart ButtonState = iota
	ButtonsRunning
	ButtonsPaused
	ButtonsDisabled
)

const (
	PauseLabel  = "Pause"
	ResumeLabel = "Resume"
)

// Controls is the rendered form of a ButtonState.
type Controls struct {
	StartEnabled bool
	PauseEnabled bool
	StopEnabled  bool
	PauseLabel   string
}

func (b ButtonState) Controls() Controls {
	switch b {
	case ButtonsStart:
		return Controls{StartEnabled: true, PauseLabel: PauseLabel}
	case ButtonsRunning:
		return Controls{PauseEnabled: true, StopEnabled: true, PauseLabel: PauseLabel}
	case ButtonsPaused:
		return Controls{PauseEnabled: true, StopEnabled: true, PauseLabel: ResumeLabel}
	}
	return Controls{PauseLabel: PauseLabel}
}

// Labels holds what the status area shows for the latest snapshot.
type Labels struct {
	Status           string
	Percent          float64
	Elapsed          float64
	Remaining        float64
	Iterations       int64
	BytesTransferred int64
}

func initialLabels() Labels {
	return Labels{Status: api.JobStateNew.String()}
}

// Progress returns the completed percentage, clamped to [0, 100], and the seconds left.
// A job without a duration limit reports no progress.
func Progress(status api.JobStatus) (percent, remaining float64) {
	if status.LimitsDuration > 0 {
		percent = 100 * status.TimeElapsed / status.LimitsDuration
	}
	if math.IsNaN(percent) {
		percent = 0
	}
	percent = math.Max(0, math.Min(100, percent))
	remaining = math.Max(0, status.LimitsDuration-status.TimeElapsed)
	return percent, remaining
}

func labelsFor(status api.JobStatus) Labels {
	percent, remaining := Progress(status)
	return Labels{
		Status:           status.State.String(),
		Percent:          percent,
		Elapsed:          status.TimeElapsed,
		Remaining:        remaining,
		Iterations:       status.IterationsTotal,
		BytesTransferred: status.TransferTotal,
	}
}
