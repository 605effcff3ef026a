package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// JobID is the master's opaque identifier for a job.
type JobID string

// JobState mirrors the master's job lifecycle.
type JobState int

const (
	JobStateNew JobState = iota
	JobStateRunning
	JobStatePaused
	JobStateComplete
	JobStateUnknown
)

var jobStateText = map[JobState]string{
	JobStateNew:      "NEW",
	JobStateRunning:  "RUNNING",
	JobStatePaused:   "PAUSED",
	JobStateComplete: "COMPLETE",
	JobStateUnknown:  "UNKNOWN",
}

func (s JobState) String() string {
	if text, ok := jobStateText[s]; ok {
		return text
	}
	return jobStateText[JobStateUnknown]
}

// UnmarshalJSON accepts either the numeric state or its label.
func (s *JobState) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		for state, label := range jobStateText {
			if strings.EqualFold(label, text) {
				*s = state
				return nil
			}
		}
		*s = JobStateUnknown
		return nil
	}

	n, err := strconv.Atoi(string(data))
	if err != nil {
		return errors.Wrapf(err, "invalid job state %q", data)
	}
	*s = JobState(n)
	if _, ok := jobStateText[*s]; !ok {
		*s = JobStateUnknown
	}
	return nil
}

// JobStatus is one polled reading of a job.
type JobStatus struct {
	State           JobState `json:"job_state"`
	TimeElapsed     float64  `json:"time_elapsed"`
	LimitsDuration  float64  `json:"limits_duration"`
	IterationsTotal int64    `json:"iterations_total"`
	TransferTotal   int64    `json:"transfer_total"`
}

// JobProfile selects the engine the master runs a job with.
type JobProfile int

const (
	ProfileBenchmark JobProfile = iota
	ProfileHammer
	ProfileDummy
)

var profileText = []string{"BENCHMARK", "HAMMER", "DUMMY"}

func (p JobProfile) String() string {
	if p < 0 || int(p) >= len(profileText) {
		return "UNKNOWN"
	}
	return profileText[p]
}

// ParseProfile is case-insensitive.
func ParseProfile(s string) (JobProfile, error) {
	for i, text := range profileText {
		if strings.EqualFold(text, strings.TrimSpace(s)) {
			return JobProfile(i), nil
		}
	}
	return 0, errors.Errorf("unknown job profile %q", s)
}

// JobSpec describes a job to create on the master.
type JobSpec struct {
	URL            string     `json:"url"`
	Profile        JobProfile `json:"profile"`
	Duration       int        `json:"duration"`
	ClientFunction string     `json:"clientFunction"`
	TransferLimit  int64      `json:"transferLimit"`
	StatsInterval  int        `json:"statsInterval"`
	Timeout        int        `json:"timeout"`
}

// Validate checks the fields the master rejects outright.
func (s JobSpec) Validate() error {
	if strings.TrimSpace(s.URL) == "" {
		return errors.New("url is required")
	}
	if s.Duration <= 0 {
		return errors.New("duration must be positive")
	}
	if s.StatsInterval < 0 {
		return errors.New("stats interval cannot be negative")
	}
	if s.TransferLimit < 0 {
		return errors.New("transfer limit cannot be negative")
	}
	return nil
}
