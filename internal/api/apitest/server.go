// Package apitest runs an in-process fake of the job service for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/jwulff/jobwatch/internal/api"
)

// Server is a fake job service. Its state can be changed between requests.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	jobs      map[string]api.Job
	logs      map[string][]api.LogEntry
	timelines map[string]api.TimelineResponse
	failAll   int // status code returned by every route when non-zero
	failLogs  int
	hits      map[string]int
}

// New starts a fake service. Call Close when done.
func New() *Server {
	s := &Server{
		jobs:      map[string]api.Job{},
		logs:      map[string][]api.LogEntry{},
		timelines: map[string]api.TimelineResponse{},
		hits:      map[string]int{},
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.count)
	r.Use(s.injectFailure)

	r.Get("/jobs", s.listJobs)
	r.Route("/jobs/{id}", func(r chi.Router) {
		r.Get("/", s.getJob)
		r.Delete("/", s.deleteJob)
		r.Get("/timeline", s.getTimeline)
		r.Post("/retry", s.retryJob)
	})
	r.Get("/logs/{id}", s.getLogs)
	r.Post("/admin/clear-errors", s.clearErrors)
	return r
}

// SetJobs replaces the job collection.
func (s *Server) SetJobs(jobs map[string]api.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = jobs
}

// SetLogs replaces the logs of one job.
func (s *Server) SetLogs(id string, logs []api.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[id] = logs
}

// SetTimeline registers a detailed timeline. Jobs without one get a 404
// from the timeline route.
func (s *Server) SetTimeline(id string, tl api.TimelineResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timelines[id] = tl
}

// FailAll makes every route answer with code. Zero restores normal service.
func (s *Server) FailAll(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = code
}

// FailLogs makes only the logs route answer with code.
func (s *Server) FailLogs(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLogs = code
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		code := s.failAll
		s.mu.Unlock()
		if code != 0 {
			writeJSON(w, code, map[string]string{"error": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.jobs)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := s.jobs[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Job not found"})
		return
	}
	delete(s.jobs, id)
	delete(s.logs, id)
	writeJSON(w, http.StatusOK, api.ActionResult{Status: "success", Message: "Job " + id + " deleted"})
}

func (s *Server) retryJob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	job, ok := s.jobs[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Job not found"})
		return
	}
	if job.Status != "error" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Job is not in error state"})
		return
	}
	job.Status = "queued"
	job.Progress = 0
	job.Timeline = nil
	job.TimelineSummary = nil
	s.jobs[id] = job
	s.logs[id] = []api.LogEntry{{Level: "INFO", Message: "Job retry initiated"}}
	writeJSON(w, http.StatusOK, api.ActionResult{Status: "success", Message: "Job " + id + " retry initiated"})
}

func (s *Server) clearErrors(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, job := range s.jobs {
		if job.Status == "error" {
			delete(s.jobs, id)
			delete(s.logs, id)
			n++
		}
	}
	writeJSON(w, http.StatusOK, api.ActionResult{Status: "success", Message: fmt.Sprintf("Cleared %d error jobs", n)})
}

func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tl, ok := s.timelines[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Timeline not found"})
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) getLogs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLogs != 0 {
		writeJSON(w, s.failLogs, map[string]string{"error": "injected log failure"})
		return
	}
	logs := s.logs[chi.URLParam(r, "id")]
	if logs == nil {
		logs = []api.LogEntry{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
