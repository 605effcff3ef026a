package results

import "math"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is ordered by strictly increasing X.
type Series []Point

// Line is a labelled series as handed to a chart renderer.
type Line struct {
	Label  string
	Points Series
}

// ThroughputChart plots requests per second with its running average. YMax only tracks
// the raw throughput.
type ThroughputChart struct {
	RequestsPerSec Series
	Average        Series
	XMax           float64
	YMax           float64
}

func (c ThroughputChart) Lines() []Line {
	return []Line{
		{Label: "requests/sec", Points: c.RequestsPerSec},
		{Label: "average", Points: c.Average},
	}
}

// LatencyChart plots the three per-bucket latencies in milliseconds.
type LatencyChart struct {
	TimeToConnect   Series
	TimeToFirstByte Series
	ResponseTime    Series
	XMax            float64
	YMax            float64
}

func (c LatencyChart) Lines() []Line {
	return []Line{
		{Label: "average time to connect (ms)", Points: c.TimeToConnect},
		{Label: "average time to first byte (ms)", Points: c.TimeToFirstByte},
		{Label: "average response time (ms)", Points: c.ResponseTime},
	}
}

// Throughput builds the requests/sec series and its cumulative average.
func Throughput(data ByTime) ThroughputChart {
	var c ThroughputChart
	avg := 0.0
	for i, s := range data.timeline() {
		n := float64(i + 1)
		y := float64(s.bucket.RequestsPerSec)
		avg = (y + (n-1)*avg) / n

		c.RequestsPerSec = append(c.RequestsPerSec, Point{X: s.at, Y: y})
		c.Average = append(c.Average, Point{X: s.at, Y: avg})
		c.XMax = math.Max(c.XMax, s.at)
		c.YMax = math.Max(c.YMax, y)
	}
	return c
}

// Latency builds the connect, first byte and response time series.
func Latency(data ByTime) LatencyChart {
	var c LatencyChart
	for _, s := range data.timeline() {
		ttc := float64(s.bucket.TimeToConnect) * 1000
		ttfb := float64(s.bucket.TimeToFirstByte) * 1000
		rt := float64(s.bucket.ResponseTime) * 1000

		c.TimeToConnect = append(c.TimeToConnect, Point{X: s.at, Y: ttc})
		c.TimeToFirstByte = append(c.TimeToFirstByte, Point{X: s.at, Y: ttfb})
		c.ResponseTime = append(c.ResponseTime, Point{X: s.at, Y: rt})
		c.XMax = math.Max(c.XMax, s.at)
		c.YMax = math.Max(c.YMax, math.Max(ttc, math.Max(ttfb, rt)))
	}
	return c
}

// Transform produces both chart payloads.
func Transform(data ByTime) (ThroughputChart, LatencyChart) {
	return Throughput(data), Latency(data)
}
