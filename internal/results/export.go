package results

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Report is the exported form of a finished job's charts.
type Report struct {
	JobID      string          `json:"jobId"`
	Throughput ThroughputChart `json:"throughput"`
	Latency    LatencyChart    `json:"latency"`
}

// ExportCSV writes one row per plotted time offset.
// Schema: time,requestsPerSec,average,timeToConnectMs,timeToFirstByteMs,responseTimeMs
func ExportCSV(r Report, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create csv export")
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"time", "requestsPerSec", "average",
		"timeToConnectMs", "timeToFirstByteMs", "responseTimeMs",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	// Both charts are built from the same timeline, so rows line up by index.
	for i, p := range r.Throughput.RequestsPerSec {
		record := []string{
			formatFloat(p.X),
			formatFloat(p.Y),
			formatFloat(r.Throughput.Average[i].Y),
			"", "", "",
		}
		if i < len(r.Latency.ResponseTime) {
			record[3] = formatFloat(r.Latency.TimeToConnect[i].Y)
			record[4] = formatFloat(r.Latency.TimeToFirstByte[i].Y)
			record[5] = formatFloat(r.Latency.ResponseTime[i].Y)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ExportJSON writes the full report.
func ExportJSON(r Report, filename string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
