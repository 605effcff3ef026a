package dummy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"thunderdash/internal/api"
)

type ServerConfig struct {
	Port int
}

// Master fakes the job master's REST API with simulated jobs.
type Master struct {
	mu   sync.Mutex
	jobs map[api.JobID]*job
	now  func() time.Time
	log  zerolog.Logger
}

type MasterOption func(*Master)

func WithClock(now func() time.Time) MasterOption {
	return func(m *Master) { m.now = now }
}

func NewMaster(log zerolog.Logger, opts ...MasterOption) *Master {
	m := &Master{
		jobs: make(map[api.JobID]*job),
		now:  time.Now,
		log:  log.With().Str("component", "dummy_master").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Master) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status/heartbeat", m.heartbeat).Methods(http.MethodGet)
	r.HandleFunc("/job", m.createJob).Methods(http.MethodPost)
	r.HandleFunc("/job/{id}/start", m.transition(api.JobStateNew, api.JobStateRunning)).Methods(http.MethodPost)
	r.HandleFunc("/job/{id}/pause", m.transition(api.JobStateRunning, api.JobStatePaused)).Methods(http.MethodPost)
	r.HandleFunc("/job/{id}/resume", m.transition(api.JobStatePaused, api.JobStateRunning)).Methods(http.MethodPost)
	r.HandleFunc("/job/{id}/stop", m.stopJob).Methods(http.MethodPost)
	r.HandleFunc("/job/{id}/state", m.jobState).Methods(http.MethodGet)
	r.HandleFunc("/job/{id}/results", m.jobResults).Methods(http.MethodGet)
	r.Use(m.logRequests)
	return r
}

// Start serves the fake master in the background.
func Start(cfg ServerConfig, log zerolog.Logger) *http.Server {
	master := NewMaster(log)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           master.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			master.log.Error().Err(err).Msg("dummy master failed")
		}
	}()

	master.log.Info().Str("addr", server.Addr).Msg("dummy master listening")
	return server
}

func (m *Master) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Msg("request")
		next.ServeHTTP(w, r)
	})
}

func (m *Master) heartbeat(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, true)
}

func (m *Master) createJob(w http.ResponseWriter, r *http.Request) {
	var spec api.JobSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid job spec: "+err.Error())
		return
	}
	if err := spec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := api.JobID(uuid.NewString())
	m.mu.Lock()
	m.jobs[id] = &job{id: id, spec: spec, state: api.JobStateNew}
	m.mu.Unlock()

	m.log.Info().Str("job", string(id)).Str("url", spec.URL).Int("duration", spec.Duration).Msg("job created")
	writeJSON(w, http.StatusCreated, id)
}

// lookup returns the job with its state brought up to date. Callers hold m.mu.
func (m *Master) lookup(w http.ResponseWriter, r *http.Request) (*job, time.Time, bool) {
	id := api.JobID(mux.Vars(r)["id"])
	j, ok := m.jobs[id]
	if !ok {
		writeError(w, http.StatusNotFound, "no such job "+string(id))
		return nil, time.Time{}, false
	}
	now := m.now()
	j.settle(now)
	return j, now, true
}

func (m *Master) transition(from, to api.JobState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		j, now, ok := m.lookup(w, r)
		if !ok {
			return
		}
		if j.state != from {
			writeError(w, http.StatusConflict, fmt.Sprintf("job is %s, not %s", j.state, from))
			return
		}
		if to == api.JobStateRunning {
			j.run(now)
		} else {
			j.hold(now, to)
		}
		m.log.Info().Str("job", string(j.id)).Stringer("state", j.state).Msg("job transitioned")
		writeJSON(w, http.StatusOK, true)
	}
}

func (m *Master) stopJob(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, now, ok := m.lookup(w, r)
	if !ok {
		return
	}
	if j.state != api.JobStateRunning && j.state != api.JobStatePaused {
		writeError(w, http.StatusConflict, fmt.Sprintf("job is %s", j.state))
		return
	}
	j.hold(now, api.JobStateComplete)
	m.log.Info().Str("job", string(j.id)).Msg("job stopped")
	writeJSON(w, http.StatusOK, true)
}

func (m *Master) jobState(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, now, ok := m.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, j.status(now))
}

func (m *Master) jobResults(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, now, ok := m.lookup(w, r)
	if !ok {
		return
	}
	status := j.status(now)
	doc := map[string]interface{}{
		"jobId":            j.id,
		"state":            j.state,
		"iterations_total": status.IterationsTotal,
		"transfer_total":   status.TransferTotal,
		"time_elapsed":     status.TimeElapsed,
		"results_byTime":   j.resultsByTime(now),
	}
	if r.URL.Query().Get("short") != "true" {
		doc["results_raw"] = j.rawSamples(now)
	}
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
