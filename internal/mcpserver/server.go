// Package mcpserver exposes the job monitor as read-only MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/logger"
	"github.com/jwulff/jobwatch/internal/phase"
	"github.com/jwulff/jobwatch/internal/registry"
	"github.com/jwulff/jobwatch/internal/tail"
	"github.com/jwulff/jobwatch/internal/timeline"
)

// Service is the part of the job service the tools read.
type Service interface {
	ListJobs(ctx context.Context) (map[string]api.Job, error)
	GetJob(ctx context.Context, id string) (api.Job, error)
	GetTimeline(ctx context.Context, id string) (api.TimelineResponse, error)
	GetLogs(ctx context.Context, id string) ([]api.LogEntry, error)
}

// Tools holds the tool handlers.
type Tools struct {
	Service Service
	Format  timeline.Formatter
	Log     *logger.Logger
	Now     func() time.Time
}

// JobSummary is one entry of list_jobs.
type JobSummary struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Display   string `json:"display"`
	Track     string `json:"track"`
	Progress  int    `json:"progress"`
	Submitted string `json:"submitted"`
	Duration  string `json:"duration"`
	Age       string `json:"age"`
	ReviewURL string `json:"review_url,omitempty"`
}

// New builds an MCP server with the monitor tools registered.
func New(t *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer("jobwatch", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("list_jobs",
		mcp.WithDescription("List jobs, newest first, with status and timing"),
		mcp.WithString("status", mcp.Description("Only jobs in this status, e.g. error or awaiting_review")),
	), t.ListJobs)

	s.AddTool(mcp.NewTool("job_stats",
		mcp.WithDescription("Count jobs by status group"),
	), t.JobStats)

	s.AddTool(mcp.NewTool("job_timeline",
		mcp.WithDescription("Phase timeline of one job"),
		mcp.WithString("job_id", mcp.Required(), mcp.Description("Job id")),
	), t.JobTimeline)

	s.AddTool(mcp.NewTool("job_logs",
		mcp.WithDescription("Log lines of one job"),
		mcp.WithString("job_id", mcp.Required(), mcp.Description("Job id")),
		mcp.WithNumber("limit", mcp.Description("Only the last N entries")),
	), t.JobLogs)

	return s
}

// Serve runs the server over stdio until stdin closes.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (t *Tools) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

func (t *Tools) log() *logger.Logger {
	if t.Log == nil {
		return logger.Nop()
	}
	return t.Log
}

// ListJobs handles list_jobs.
func (t *Tools) ListJobs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs, err := t.Service.ListJobs(ctx)
	if err != nil {
		t.log().Warn("list_jobs failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load jobs: %v", err)), nil
	}
	filter := phase.Phase(req.GetString("status", ""))

	reg := registry.New()
	reg.Replace(jobs, t.now())
	out := []JobSummary{}
	for _, r := range registry.BuildRows(reg.Sorted(), t.Format, t.now()) {
		if filter != "" && r.Status != filter {
			continue
		}
		j, _ := reg.Get(r.ID)
		out = append(out, JobSummary{
			ID:        r.ID,
			Status:    string(r.Status),
			Display:   r.Display,
			Track:     r.Track,
			Progress:  j.Percent(),
			Submitted: r.Submitted,
			Duration:  r.Duration,
			Age:       r.Age,
			ReviewURL: r.ReviewURL,
		})
	}
	return jsonResult(out)
}

// JobStats handles job_stats.
func (t *Tools) JobStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs, err := t.Service.ListJobs(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load jobs: %v", err)), nil
	}
	s := registry.ComputeStats(jobs)
	return jsonResult(map[string]int{
		"total":           s.Total,
		"processing":      s.Processing,
		"awaiting_review": s.AwaitingReview,
		"complete":        s.Complete,
		"error":           s.Error,
	})
}

// JobTimeline handles job_timeline.
func (t *Tools) JobTimeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("job_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := t.Format.Load(ctx, t.Service, id, t.now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error loading timeline: %v", err)), nil
	}
	return jsonResult(d)
}

// JobLogs handles job_logs. The text matches the TUI's copy format.
func (t *Tools) JobLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("job_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries, err := t.Service.GetLogs(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load logs: %v", err)), nil
	}
	if limit := req.GetInt("limit", 0); limit > 0 && limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}
	return mcp.NewToolResultText(tail.ExportText(id, entries, t.now(), t.Format.Loc)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
