// Package server exposes the job surface over HTTP: submit, server-sent
// event streams of job progress, idempotent result fetches, and screenshot
// artifacts.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/entrhq/surf/pkg/agent"
	"github.com/entrhq/surf/pkg/jobs"
	"github.com/entrhq/surf/pkg/status"
	"github.com/entrhq/surf/pkg/store"
)

// keepAliveInterval is how long a stream waits for an event before emitting
// an SSE comment to hold the connection open.
const keepAliveInterval = 120 * time.Second

// JobService starts jobs. Satisfied by *jobs.Runner; tests stub it.
type JobService interface {
	Submit(req jobs.Request) string
}

// Server is the HTTP surface over the job runner, event broker, and result
// store.
type Server struct {
	jobs           JobService
	broker         *status.Broker
	results        *store.Store
	screenshotsDir string
}

// NewServer wires a server from its collaborators.
func NewServer(jobSvc JobService, broker *status.Broker, results *store.Store, screenshotsDir string) *Server {
	return &Server{
		jobs:           jobSvc,
		broker:         broker,
		results:        results,
		screenshotsDir: screenshotsDir,
	}
}

// Router builds the chi handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/search", s.startSearch)
	r.Get("/stream/{jobID}", s.streamStatus)
	r.Get("/result/{jobID}", s.getResult)
	r.Get("/health", s.health)
	r.Handle("/screenshots/*", http.StripPrefix("/screenshots/", http.FileServer(http.Dir(s.screenshotsDir))))

	return r
}

type searchRequest struct {
	URL      string `json:"url"`
	Query    string `json:"query"`
	Provider string `json:"llm_provider"`
	Stealth  bool   `json:"stealth"`
}

func (s *Server) startSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" || req.Query == "" {
		http.Error(w, "url and query are required", http.StatusBadRequest)
		return
	}
	if req.Provider == "" {
		req.Provider = "anthropic"
	}

	jobID := s.jobs.Submit(jobs.Request{
		URL:      req.URL,
		Query:    req.Query,
		Provider: req.Provider,
		Stealth:  req.Stealth,
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"job_id":     jobID,
		"stream_url": "/stream/" + jobID,
		"result_url": "/result/" + jobID,
	})
}

// streamStatus serves the job's event stream as SSE, terminated by a
// job_done or job_failed event. A job that already finished gets its
// terminal event replayed immediately from the result store; an id that was
// never submitted is a 404 rather than an idle stream.
func (s *Server) streamStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	result, found, err := s.results.Fetch(jobID)
	if err == nil && found {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		msg := agent.EventJobDone
		if result.Error != "" {
			msg = agent.EventJobFailed
		}
		writeSSE(w, status.Event{Ts: time.Now().UTC().Format(time.RFC3339), Msg: msg})
		flusher.Flush()
		return
	}

	// Every submitted job pushes job_queued before its id is handed out, so
	// an id the broker has never seen cannot be a live job.
	if !s.broker.Seen(jobID) {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	events := s.broker.Subscribe(ctx, jobID)
	keepAlive := time.NewTimer(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, open := <-events:
			if !open {
				return
			}
			writeSSE(w, event)
			flusher.Flush()
			if event.Msg == agent.EventJobDone || event.Msg == agent.EventJobFailed {
				return
			}
			if !keepAlive.Stop() {
				select {
				case <-keepAlive.C:
				default:
				}
			}
			keepAlive.Reset(keepAliveInterval)

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
			keepAlive.Reset(keepAliveInterval)
		}
	}
}

// getResult returns the finalized result snapshot, or 202 while the job is
// still running. Fetching a completed job is idempotent.
func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	result, found, err := s.results.Fetch(jobID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, event status.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
