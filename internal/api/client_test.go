package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thunderdash/internal/api"
	"thunderdash/internal/dummy"
)

func newClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return api.NewClient(api.ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second}, zerolog.Nop())
}

func TestClientAgainstDummyMaster(t *testing.T) {
	client := newClient(t, dummy.NewMaster(zerolog.Nop()).Router())
	ctx := context.Background()

	require.NoError(t, client.Heartbeat(ctx))

	id, err := client.CreateJob(ctx, api.JobSpec{URL: "http://target", Duration: 60, StatsInterval: 1})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	status, err := client.JobStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, api.JobStateNew, status.State)
	assert.Equal(t, 60.0, status.LimitsDuration)

	require.NoError(t, client.StartJob(ctx, id))
	require.NoError(t, client.PauseJob(ctx, id))

	status, err = client.JobStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, api.JobStatePaused, status.State)

	require.NoError(t, client.ResumeJob(ctx, id))
	require.NoError(t, client.StopJob(ctx, id))

	status, err = client.JobStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, api.JobStateComplete, status.State)

	full, statusText, err := client.JobResults(ctx, id, true)
	require.NoError(t, err)
	assert.Contains(t, statusText, "200")
	assert.Contains(t, string(full), "results_raw")

	short, _, err := client.JobResults(ctx, id, false)
	require.NoError(t, err)
	assert.Contains(t, string(short), "results_byTime")
	assert.NotContains(t, string(short), "results_raw")
}

func TestClientErrors(t *testing.T) {
	client := newClient(t, dummy.NewMaster(zerolog.Nop()).Router())
	ctx := context.Background()

	err := client.StartJob(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrUnexpectedStatus))
	assert.Contains(t, err.Error(), "404")

	id, err := client.CreateJob(ctx, api.JobSpec{URL: "http://target", Duration: 5})
	require.NoError(t, err)
	err = client.PauseJob(ctx, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")

	_, err = client.CreateJob(ctx, api.JobSpec{Duration: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrUnexpectedStatus))
}

func TestClientUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := api.NewClient(api.ClientConfig{BaseURL: url, Timeout: time.Second}, zerolog.Nop())
	err := client.Heartbeat(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, api.ErrUnexpectedStatus))
}

func TestClientSendsRequestID(t *testing.T) {
	var seen string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	}))
	require.NoError(t, client.StopJob(context.Background(), "7"))
	assert.Len(t, seen, 36)
}

func TestCreateJobNumericID(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var spec api.JobSpec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil || spec.URL == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("42"))
	}))
	id, err := client.CreateJob(context.Background(), api.JobSpec{URL: "http://x", Duration: 1})
	require.NoError(t, err)
	assert.Equal(t, api.JobID("42"), id)
}

func TestJobStateUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want api.JobState
	}{
		{`1`, api.JobStateRunning},
		{`"paused"`, api.JobStatePaused},
		{`"COMPLETE"`, api.JobStateComplete},
		{`"exploded"`, api.JobStateUnknown},
		{`17`, api.JobStateUnknown},
	}
	for _, tc := range cases {
		var s api.JobState
		require.NoError(t, json.Unmarshal([]byte(tc.in), &s), tc.in)
		assert.Equal(t, tc.want, s, tc.in)
	}

	var s api.JobState
	assert.Error(t, json.Unmarshal([]byte(`true`), &s))
}

func TestJobSpecValidate(t *testing.T) {
	assert.NoError(t, api.JobSpec{URL: "http://x", Duration: 1}.Validate())
	assert.Error(t, api.JobSpec{Duration: 1}.Validate())
	assert.Error(t, api.JobSpec{URL: "http://x"}.Validate())
	assert.Error(t, api.JobSpec{URL: "http://x", Duration: 1, StatsInterval: -1}.Validate())
	assert.Error(t, api.JobSpec{URL: "http://x", Duration: 1, TransferLimit: -1}.Validate())
}

func TestParseProfile(t *testing.T) {
	p, err := api.ParseProfile(" hammer ")
	require.NoError(t, err)
	assert.Equal(t, api.ProfileHammer, p)
	assert.Equal(t, "HAMMER", p.String())

	_, err = api.ParseProfile("nope")
	assert.Error(t, err)
}
