package dummy

import (
	"math"
	"strconv"
	"time"

	"thunderdash/internal/api"
)

const (
	defaultRate     = 50.0 // requests/sec at steady state
	bytesPerRequest = 2048
)

// job simulates one load test. Elapsed time only advances while running.
type job struct {
	id    api.JobID
	spec  api.JobSpec
	state api.JobState

	accumulated time.Duration
	resumedAt   time.Time
}

func (j *job) elapsed(now time.Time) time.Duration {
	if j.state != api.JobStateRunning {
		return j.accumulated
	}
	return j.accumulated + now.Sub(j.resumedAt)
}

func (j *job) limit() time.Duration {
	return time.Duration(j.spec.Duration) * time.Second
}

// settle completes a running job whose duration has run out.
func (j *job) settle(now time.Time) {
	if j.state == api.JobStateRunning && j.elapsed(now) >= j.limit() {
		j.accumulated = j.limit()
		j.state = api.JobStateComplete
	}
}

func (j *job) run(now time.Time) {
	j.state = api.JobStateRunning
	j.resumedAt = now
}

func (j *job) hold(now time.Time, state api.JobState) {
	j.accumulated = j.elapsed(now)
	j.state = state
}

func (j *job) status(now time.Time) api.JobStatus {
	elapsed := j.elapsed(now).Seconds()
	iterations := j.iterations(elapsed)
	transfer := iterations * bytesPerRequest
	if j.spec.TransferLimit > 0 && transfer > j.spec.TransferLimit {
		transfer = j.spec.TransferLimit
	}
	return api.JobStatus{
		State:           j.state,
		TimeElapsed:     math.Round(elapsed*10) / 10,
		LimitsDuration:  float64(j.spec.Duration),
		IterationsTotal: iterations,
		TransferTotal:   transfer,
	}
}

// rate is the target requests/sec at t seconds: a linear ramp up over the first fifth of the
// job, steady state, and a ramp down over the last fifth.
func (j *job) rate(t float64) float64 {
	total := float64(j.spec.Duration)
	ramp := total / 5
	switch {
	case t < 0 || t > total:
		return 0
	case ramp == 0:
		return defaultRate
	case t < ramp:
		return defaultRate * (t / ramp)
	case t > total-ramp:
		return defaultRate * ((total - t) / ramp)
	}
	return defaultRate
}

// iterations integrates the rate curve, one second at a time.
func (j *job) iterations(elapsed float64) int64 {
	var n float64
	for t := 0.0; t < elapsed; t++ {
		n += j.rate(t) * math.Min(1, elapsed-t)
	}
	return int64(n)
}

func (j *job) statsInterval() int {
	if j.spec.StatsInterval > 0 {
		return j.spec.StatsInterval
	}
	return 1
}

// bucket synthesizes the averaged metrics the master would report for offset t.
func (j *job) bucket(t float64) map[string]float64 {
	rps := j.rate(t) * (1 + 0.1*math.Sin(t/3))
	// latency grows with load
	load := rps / defaultRate
	connect := 0.002 + 0.001*load
	firstByte := connect + 0.015 + 0.02*load*load
	response := firstByte + 0.005 + 0.01*math.Abs(math.Cos(t/7))
	return map[string]float64{
		"requestsPerSec":  math.Round(rps*100) / 100,
		"timeToConnect":   connect,
		"timeToFirstByte": firstByte,
		"responseTime":    response,
	}
}

func (j *job) resultsByTime(now time.Time) map[string]map[string]float64 {
	elapsed := int(j.elapsed(now).Seconds())
	step := j.statsInterval()
	out := make(map[string]map[string]float64, elapsed/step+1)
	for t := 0; t <= elapsed; t += step {
		out[strconv.Itoa(t)] = j.bucket(float64(t))
	}
	return out
}

type sample struct {
	Offset     int     `json:"offset"`
	Iterations int64   `json:"iterations"`
	Rate       float64 `json:"rate"`
}

// rawSamples is the per-second iteration log the master keeps next to its aggregates.
func (j *job) rawSamples(now time.Time) []sample {
	elapsed := int(j.elapsed(now).Seconds())
	out := make([]sample, 0, elapsed)
	var prev int64
	for t := 1; t <= elapsed; t++ {
		n := j.iterations(float64(t))
		out = append(out, sample{Offset: t, Iterations: n - prev, Rate: j.rate(float64(t - 1))})
		prev = n
	}
	return out
}
