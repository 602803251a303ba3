package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound matches a 404 from the service.
var ErrNotFound = errors.New("not found")

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, http.StatusText(e.Code))
}

// HTTPStatusCode returns the response status code.
func (e *StatusError) HTTPStatusCode() int { return e.Code }

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Client talks to the job service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL. A zero timeout leaves the transport
// default in place.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the service root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// ListJobs fetches the full job collection. IDs are filled from the keys.
func (c *Client) ListJobs(ctx context.Context) (map[string]Job, error) {
	var jobs map[string]Job
	if err := c.do(ctx, http.MethodGet, "/jobs", &jobs); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if jobs == nil {
		jobs = map[string]Job{}
	}
	for id, j := range jobs {
		j.ID = id
		jobs[id] = j
	}
	return jobs, nil
}

// GetJob fetches a single job.
func (c *Client) GetJob(ctx context.Context, id string) (Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), &job); err != nil {
		return Job{}, fmt.Errorf("get job %s: %w", id, err)
	}
	job.ID = id
	return job, nil
}

// GetTimeline fetches the detailed phase timeline of a job.
func (c *Client) GetTimeline(ctx context.Context, id string) (TimelineResponse, error) {
	var resp TimelineResponse
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id)+"/timeline", &resp); err != nil {
		return TimelineResponse{}, fmt.Errorf("get timeline %s: %w", id, err)
	}
	return resp, nil
}

// GetLogs fetches the log lines of a job.
func (c *Client) GetLogs(ctx context.Context, id string) ([]LogEntry, error) {
	var logs []LogEntry
	if err := c.do(ctx, http.MethodGet, "/logs/"+url.PathEscape(id), &logs); err != nil {
		return nil, fmt.Errorf("get logs %s: %w", id, err)
	}
	return logs, nil
}

// RetryJob asks the service to restart a failed job.
func (c *Client) RetryJob(ctx context.Context, id string) (ActionResult, error) {
	var res ActionResult
	if err := c.do(ctx, http.MethodPost, "/jobs/"+url.PathEscape(id)+"/retry", &res); err != nil {
		return ActionResult{}, fmt.Errorf("retry job %s: %w", id, err)
	}
	return res, nil
}

// DeleteJob removes a job and its logs.
func (c *Client) DeleteJob(ctx context.Context, id string) (ActionResult, error) {
	var res ActionResult
	if err := c.do(ctx, http.MethodDelete, "/jobs/"+url.PathEscape(id), &res); err != nil {
		return ActionResult{}, fmt.Errorf("delete job %s: %w", id, err)
	}
	return res, nil
}

// ClearErrorJobs removes every job in the error state.
func (c *Client) ClearErrorJobs(ctx context.Context) (ActionResult, error) {
	var res ActionResult
	if err := c.do(ctx, http.MethodPost, "/admin/clear-errors", &res); err != nil {
		return ActionResult{}, fmt.Errorf("clear error jobs: %w", err)
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{Code: res.StatusCode, Message: errorMessage(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// errorMessage pulls a message out of the service's error bodies:
// {"detail": ...}, {"error": ...} or {"message": ...}.
func errorMessage(body []byte) string {
	var e struct {
		Detail  any    `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	switch {
	case e.Detail != nil:
		if s, ok := e.Detail.(string); ok {
			return s
		}
		return fmt.Sprint(e.Detail)
	case e.Error != "":
		return e.Error
	default:
		return e.Message
	}
}
