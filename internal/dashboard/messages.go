package dashboard

import (
	"time"

	"thunderdash/internal/api"
)

// EnableTabMsg asks the navigation to enable the tab at Index.
type EnableTabMsg struct {
	Index int
}

// ResetNewJobMsg asks the new-job form to return to its defaults.
type ResetNewJobMsg struct{}

// ChartsReadyMsg is emitted once the final results have been turned into charts.
type ChartsReadyMsg struct {
	JobID api.JobID
}

type commandMsg struct {
	jobID  api.JobID
	action action
	err    error
}

type attachMsg struct {
	jobID  api.JobID
	status api.JobStatus
	err    error
}

type pollTickMsg struct {
	jobID api.JobID
	seq   int
}

type statusMsg struct {
	jobID   api.JobID
	seq     int
	started time.Time
	status  api.JobStatus
	err     error
}

type resultsMsg struct {
	jobID      api.JobID
	payload    []byte
	statusText string
	err        error
}
