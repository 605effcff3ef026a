package results

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Float decodes a JSON number, a numeric string or null.
type Float float64

func (f *Float) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(text))
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return errors.Wrapf(err, "invalid metric %q", data)
	}
	*f = Float(v)
	return nil
}

// Bucket holds the metrics the master recorded for one time offset. Times are in seconds.
type Bucket struct {
	RequestsPerSec  Float `json:"requestsPerSec"`
	TimeToConnect   Float `json:"timeToConnect"`
	TimeToFirstByte Float `json:"timeToFirstByte"`
	ResponseTime    Float `json:"responseTime"`
}

// ByTime maps a time offset, serialized as a decimal string, to its bucket.
type ByTime map[string]Bucket

// ErrSkippedBuckets is wrapped into the error ParsePayload returns alongside the buckets
// that did decode when some did not.
var ErrSkippedBuckets = errors.New("skipped unparsable result buckets")

type payload struct {
	ResultsByTime map[string]json.RawMessage `json:"results_byTime"`
}

// ParsePayload extracts results_byTime from a results document. A malformed document or a
// missing field yields an empty, non-nil ByTime alongside the error. Buckets that fail to
// decode on their own are left out and reported with ErrSkippedBuckets; the rest are kept.
func ParsePayload(data []byte) (ByTime, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return ByTime{}, errors.Wrap(err, "malformed results payload")
	}
	if p.ResultsByTime == nil {
		return ByTime{}, errors.New("results payload has no results_byTime")
	}

	out := make(ByTime, len(p.ResultsByTime))
	var skipped []string
	for key, raw := range p.ResultsByTime {
		var b Bucket
		if err := json.Unmarshal(raw, &b); err != nil {
			skipped = append(skipped, key)
			continue
		}
		out[key] = b
	}
	if len(skipped) > 0 {
		sort.Strings(skipped)
		return out, errors.Wrapf(ErrSkippedBuckets, "keys %s", strings.Join(skipped, ", "))
	}
	return out, nil
}

type sample struct {
	at     float64
	key    string
	bucket Bucket
}

// timeline orders the buckets by numeric offset and drops the first one, which is the
// origin of the run. Keys that do not parse as finite numbers are ignored; of several keys
// with the same offset only the lexically smallest survives, so N distinct numeric keys
// give N-1 samples.
func (r ByTime) timeline() []sample {
	samples := make([]sample, 0, len(r))
	for key, bucket := range r {
		at, err := strconv.ParseFloat(strings.TrimSpace(key), 64)
		if err != nil || math.IsNaN(at) || math.IsInf(at, 0) {
			continue
		}
		samples = append(samples, sample{at: at, key: key, bucket: bucket})
	}
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].at == samples[j].at {
			return samples[i].key < samples[j].key
		}
		return samples[i].at < samples[j].at
	})

	unique := samples[:0]
	for _, s := range samples {
		if len(unique) > 0 && unique[len(unique)-1].at == s.at {
			continue
		}
		unique = append(unique, s)
	}

	if len(unique) <= 1 {
		return nil
	}
	return unique[1:]
}
