package api

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrUnexpectedStatus is wrapped into every non-2xx response from the master.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Backend is the job master as the dashboard sees it.
type Backend interface {
	CreateJob(ctx context.Context, spec JobSpec) (JobID, error)
	StartJob(ctx context.Context, id JobID) error
	PauseJob(ctx context.Context, id JobID) error
	ResumeJob(ctx context.Context, id JobID) error
	StopJob(ctx context.Context, id JobID) error
	JobStatus(ctx context.Context, id JobID) (JobStatus, error)
	// JobResults returns the raw results document and the response status text.
	JobResults(ctx context.Context, id JobID, includeRaw bool) ([]byte, string, error)
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the master's REST API.
type Client struct {
	client *resty.Client
	log    zerolog.Logger
}

var _ Backend = (*Client)(nil)

func NewClient(cfg ClientConfig, log zerolog.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	c := &Client{
		client: client,
		log:    log.With().Str("component", "master_client").Logger(),
	}

	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader("X-Request-ID", uuid.NewString())
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
		c.log.Debug().
			Str("method", r.Request.Method).
			Str("url", r.Request.URL).
			Str("request_id", r.Request.Header.Get("X-Request-ID")).
			Int("status", r.StatusCode()).
			Dur("took", r.Time()).
			Msg("master responded")
		return nil
	})

	return c
}

func (c *Client) CreateJob(ctx context.Context, spec JobSpec) (JobID, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(spec).
		Post("/job")
	if err := checkResponse(resp, err, "create job"); err != nil {
		return "", err
	}
	return parseJobID(resp.Body())
}

func (c *Client) StartJob(ctx context.Context, id JobID) error {
	return c.command(ctx, id, "start")
}

func (c *Client) PauseJob(ctx context.Context, id JobID) error {
	return c.command(ctx, id, "pause")
}

func (c *Client) ResumeJob(ctx context.Context, id JobID) error {
	return c.command(ctx, id, "resume")
}

func (c *Client) StopJob(ctx context.Context, id JobID) error {
	return c.command(ctx, id, "stop")
}

func (c *Client) command(ctx context.Context, id JobID, op string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", string(id)).
		Post("/job/{id}/" + op)
	return checkResponse(resp, err, op+" job "+string(id))
}

func (c *Client) JobStatus(ctx context.Context, id JobID) (JobStatus, error) {
	var status JobStatus
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", string(id)).
		Get("/job/{id}/state")
	if err := checkResponse(resp, err, "job state "+string(id)); err != nil {
		return status, err
	}
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		return status, errors.Wrap(err, "failed to decode job state")
	}
	return status, nil
}

func (c *Client) JobResults(ctx context.Context, id JobID, includeRaw bool) ([]byte, string, error) {
	req := c.client.R().
		SetContext(ctx).
		SetPathParam("id", string(id))
	if !includeRaw {
		req.SetQueryParam("short", "true")
	}
	resp, err := req.Get("/job/{id}/results")
	if err := checkResponse(resp, err, "job results "+string(id)); err != nil {
		return nil, "", err
	}
	return resp.Body(), resp.Status(), nil
}

// Heartbeat reports whether the master answers its health endpoint.
func (c *Client) Heartbeat(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/status/heartbeat")
	return checkResponse(resp, err, "heartbeat")
}

func checkResponse(resp *resty.Response, err error, what string) error {
	if err != nil {
		return errors.Wrapf(err, "%s failed", what)
	}
	if resp.IsError() {
		return errors.Wrapf(ErrUnexpectedStatus, "%s: %s: %s", what, resp.Status(), bytes.TrimSpace(resp.Body()))
	}
	return nil
}

// parseJobID accepts the id as a JSON string or a JSON number.
func parseJobID(body []byte) (JobID, error) {
	body = bytes.TrimSpace(body)
	var text string
	if err := json.Unmarshal(body, &text); err == nil && text != "" {
		return JobID(text), nil
	}
	var n json.Number
	if err := json.Unmarshal(body, &n); err == nil {
		if _, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return JobID(n.String()), nil
		}
	}
	return "", errors.Errorf("malformed job id %q", body)
}
