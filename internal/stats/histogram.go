package stats

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const maxTrackable = int64(10 * time.Minute / time.Microsecond)

// Histogram records millisecond values at microsecond resolution.
type Histogram struct {
	hist *hdrhistogram.Histogram
}

func NewHistogram() *Histogram {
	// 1us to 10min, 3 significant figures
	return &Histogram{hist: hdrhistogram.New(1, maxTrackable, 3)}
}

// RecordMs clamps values outside the trackable range instead of dropping them.
func (h *Histogram) RecordMs(ms float64) {
	us := int64(ms * 1000)
	if us < 0 {
		us = 0
	}
	if us > maxTrackable {
		us = maxTrackable
	}
	_ = h.hist.RecordValue(us)
}

func (h *Histogram) QuantileMs(q float64) float64 {
	return float64(h.hist.ValueAtQuantile(q)) / 1000.0
}

func (h *Histogram) MeanMs() float64 {
	return h.hist.Mean() / 1000.0
}

func (h *Histogram) MaxMs() float64 {
	if h.hist.TotalCount() == 0 {
		return 0
	}
	return float64(h.hist.Max()) / 1000.0
}

func (h *Histogram) Count() int64 {
	return h.hist.TotalCount()
}
