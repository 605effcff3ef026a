package results

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThroughputSkipsOriginAndAverages(t *testing.T) {
	data := ByTime{
		"0": {RequestsPerSec: 99},
		"1": {RequestsPerSec: 10},
		"2": {RequestsPerSec: 20},
	}

	c := Throughput(data)

	assert.Equal(t, Series{{X: 1, Y: 10}, {X: 2, Y: 20}}, c.RequestsPerSec)
	assert.Equal(t, Series{{X: 1, Y: 10}, {X: 2, Y: 15}}, c.Average)
	assert.Equal(t, 20.0, c.YMax)
	assert.Equal(t, 2.0, c.XMax)
}

func TestTimelineSortsNumerically(t *testing.T) {
	data := ByTime{
		"10":  {RequestsPerSec: 3},
		"9":   {RequestsPerSec: 2},
		"100": {RequestsPerSec: 4},
		"2.5": {RequestsPerSec: 1},
		"0":   {RequestsPerSec: 0},
	}

	c := Throughput(data)

	var xs []float64
	for _, p := range c.RequestsPerSec {
		xs = append(xs, p.X)
	}
	assert.Equal(t, []float64{9, 10, 100}, xs)
}

func TestTimelineIgnoresBadAndDuplicateKeys(t *testing.T) {
	data := ByTime{
		"0":    {RequestsPerSec: 1},
		"1":    {RequestsPerSec: 5},
		"1.0":  {RequestsPerSec: 7},
		"oops": {RequestsPerSec: 9},
		"NaN":  {RequestsPerSec: 9},
		"2":    {RequestsPerSec: 6},
	}

	c := Throughput(data)

	assert.Equal(t, Series{{X: 1, Y: 5}, {X: 2, Y: 6}}, c.RequestsPerSec)
}

func TestEmptyAndSingleKey(t *testing.T) {
	for name, data := range map[string]ByTime{
		"nil":    nil,
		"empty":  {},
		"single": {"0": {RequestsPerSec: 10, ResponseTime: 1}},
	} {
		t.Run(name, func(t *testing.T) {
			tp, lat := Transform(data)

			assert.Empty(t, tp.RequestsPerSec)
			assert.Empty(t, tp.Average)
			assert.Zero(t, tp.XMax)
			assert.Zero(t, tp.YMax)
			assert.Empty(t, lat.TimeToConnect)
			assert.Empty(t, lat.TimeToFirstByte)
			assert.Empty(t, lat.ResponseTime)
			assert.Zero(t, lat.XMax)
			assert.Zero(t, lat.YMax)
		})
	}
}

func TestThroughputProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		n := 1 + rng.Intn(40)
		data := make(ByTime, n)
		for len(data) < n {
			key := fmt.Sprintf("%d", rng.Intn(1000))
			data[key] = Bucket{RequestsPerSec: Float(rng.Float64() * 500)}
		}

		c := Throughput(data)
		require.Len(t, c.RequestsPerSec, n-1)
		require.Len(t, c.Average, n-1)

		sum, xMax, yMax := 0.0, 0.0, 0.0
		for i, p := range c.RequestsPerSec {
			if i > 0 {
				assert.Greater(t, p.X, c.RequestsPerSec[i-1].X)
			}
			sum += p.Y
			assert.InDelta(t, sum/float64(i+1), c.Average[i].Y, 1e-9)
			assert.Equal(t, p.X, c.Average[i].X)
			if p.X > xMax {
				xMax = p.X
			}
			if p.Y > yMax {
				yMax = p.Y
			}
		}
		assert.Equal(t, xMax, c.XMax)
		assert.Equal(t, yMax, c.YMax)
	}
}

func TestAverageDoesNotRaiseYMax(t *testing.T) {
	data := ByTime{
		"0": {},
		"1": {RequestsPerSec: 30},
		"2": {RequestsPerSec: 0},
	}

	c := Throughput(data)

	assert.Equal(t, 30.0, c.YMax)
	assert.Equal(t, 15.0, c.Average[1].Y)
}

func TestLatencyConvertsToMilliseconds(t *testing.T) {
	data := ByTime{
		"0": {TimeToConnect: 9, TimeToFirstByte: 9, ResponseTime: 9},
		"5": {TimeToConnect: 0.010, TimeToFirstByte: 0.020, ResponseTime: 0.050},
		"3": {TimeToConnect: 0.002, TimeToFirstByte: 0.120, ResponseTime: 0.080},
	}

	c := Latency(data)

	require.Len(t, c.ResponseTime, 2)
	assert.Equal(t, 3.0, c.TimeToConnect[0].X)
	assert.InDelta(t, 2.0, c.TimeToConnect[0].Y, 1e-9)
	assert.InDelta(t, 120.0, c.TimeToFirstByte[0].Y, 1e-9)
	assert.InDelta(t, 80.0, c.ResponseTime[0].Y, 1e-9)
	assert.InDelta(t, 50.0, c.ResponseTime[1].Y, 1e-9)
	assert.Equal(t, 5.0, c.XMax)
	assert.InDelta(t, 120.0, c.YMax, 1e-9)
}
