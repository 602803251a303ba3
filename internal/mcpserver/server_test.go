package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/api/apitest"
	"github.com/jwulff/jobwatch/internal/timeline"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTools(t *testing.T) (*Tools, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.SetJobs(map[string]api.Job{
		"a": {Status: "complete", Progress: 100, CreatedAt: "2024-06-01T09:00:00", Artist: "ABBA", Title: "SOS"},
		"b": {Status: "error", Progress: 30, CreatedAt: "2024-06-01T11:00:00"},
		"c": {Status: "awaiting_review", Progress: 80, CreatedAt: "2024-06-01T10:00:00", ReviewURL: "http://review/c"},
	})
	return &Tools{
		Service: api.New(srv.URL, 0),
		Format:  timeline.Formatter{Loc: time.UTC},
		Now:     func() time.Time { return now },
	}, srv
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("content is %T, want text", res.Content[0])
	return ""
}

func TestListJobs(t *testing.T) {
	tools, _ := newTools(t)
	res, err := tools.ListJobs(context.Background(), call(nil))
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	var jobs []JobSummary
	if err := json.Unmarshal([]byte(text(t, res)), &jobs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}
	if jobs[0].ID != "b" || jobs[2].ID != "a" {
		t.Errorf("order = %s,%s,%s, want newest first", jobs[0].ID, jobs[1].ID, jobs[2].ID)
	}
	if jobs[2].Track != "ABBA - SOS" || jobs[2].Duration != "3h 0m" {
		t.Errorf("jobs[2] = %+v", jobs[2])
	}
	if jobs[1].ReviewURL != "http://review/c" {
		t.Errorf("ReviewURL = %q", jobs[1].ReviewURL)
	}
}

func TestListJobsFilter(t *testing.T) {
	tools, _ := newTools(t)
	res, _ := tools.ListJobs(context.Background(), call(map[string]any{"status": "error"}))
	var jobs []JobSummary
	if err := json.Unmarshal([]byte(text(t, res)), &jobs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "b" {
		t.Errorf("jobs = %+v, want only b", jobs)
	}
}

func TestListJobsServiceDown(t *testing.T) {
	tools, srv := newTools(t)
	srv.FailAll(503)
	res, err := tools.ListJobs(context.Background(), call(nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError || !strings.HasPrefix(text(t, res), "Failed to load jobs") {
		t.Errorf("result = %+v, want tool error", res)
	}
}

func TestJobStats(t *testing.T) {
	tools, _ := newTools(t)
	res, _ := tools.JobStats(context.Background(), call(nil))
	var stats map[string]int
	if err := json.Unmarshal([]byte(text(t, res)), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]int{"total": 3, "processing": 0, "awaiting_review": 1, "complete": 1, "error": 1}
	for k, v := range want {
		if stats[k] != v {
			t.Errorf("stats[%s] = %d, want %d", k, stats[k], v)
		}
	}
}

func TestJobTimelineDegraded(t *testing.T) {
	tools, _ := newTools(t)
	res, _ := tools.JobTimeline(context.Background(), call(map[string]any{"job_id": "b"}))
	var d timeline.Detail
	if err := json.Unmarshal([]byte(text(t, res)), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !d.Degraded || d.JobID != "b" {
		t.Errorf("detail = %+v, want degraded view of b", d)
	}
}

func TestJobTimelineMissing(t *testing.T) {
	tools, _ := newTools(t)
	res, _ := tools.JobTimeline(context.Background(), call(map[string]any{"job_id": "zzz"}))
	if !res.IsError {
		t.Error("unknown job should be a tool error")
	}
	res, _ = tools.JobTimeline(context.Background(), call(nil))
	if !res.IsError {
		t.Error("missing job_id should be a tool error")
	}
}

func TestJobLogsLimit(t *testing.T) {
	tools, srv := newTools(t)
	srv.SetLogs("a", []api.LogEntry{
		{Timestamp: "2024-06-01T09:00:01", Level: "INFO", Message: "first"},
		{Timestamp: "2024-06-01T09:00:02", Level: "WARNING", Message: "second"},
		{Timestamp: "2024-06-01T09:00:03", Level: "INFO", Message: "third"},
	})
	res, _ := tools.JobLogs(context.Background(), call(map[string]any{"job_id": "a", "limit": 2}))
	out := text(t, res)
	if !strings.HasPrefix(out, "=== Job a Logs ===") {
		t.Errorf("missing header: %q", out)
	}
	if strings.Contains(out, "first") || !strings.Contains(out, "third") {
		t.Errorf("limit not applied: %q", out)
	}
	if !strings.Contains(out, "Total log entries: 2") {
		t.Errorf("entry count wrong: %q", out)
	}
}

func TestNewRegistersTools(t *testing.T) {
	tools, _ := newTools(t)
	if s := New(tools, "test"); s == nil {
		t.Fatal("New returned nil")
	}
}
