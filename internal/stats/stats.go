package stats

import (
	"thunderdash/internal/results"
)

// Summary condenses a finished job's charts into headline numbers.
type Summary struct {
	Buckets int64

	MeanRPS float64
	PeakRPS float64

	// Percentiles over the per-bucket average response times
	P50ResponseMs float64
	P90ResponseMs float64
	P99ResponseMs float64
	MaxResponseMs float64

	MeanConnectMs   float64
	MeanFirstByteMs float64
}

func Summarize(tp results.ThroughputChart, lat results.LatencyChart) Summary {
	var s Summary
	if n := len(tp.Average); n > 0 {
		// the running average's last point is the mean of the whole series
		s.MeanRPS = tp.Average[n-1].Y
		s.PeakRPS = tp.YMax
	}

	response := NewHistogram()
	connect := NewHistogram()
	firstByte := NewHistogram()
	for i, p := range lat.ResponseTime {
		response.RecordMs(p.Y)
		connect.RecordMs(lat.TimeToConnect[i].Y)
		firstByte.RecordMs(lat.TimeToFirstByte[i].Y)
	}

	s.Buckets = response.Count()
	if s.Buckets == 0 {
		return s
	}
	s.P50ResponseMs = response.QuantileMs(50)
	s.P90ResponseMs = response.QuantileMs(90)
	s.P99ResponseMs = response.QuantileMs(99)
	s.MaxResponseMs = response.MaxMs()
	s.MeanConnectMs = connect.MeanMs()
	s.MeanFirstByteMs = firstByte.MeanMs()
	return s
}
