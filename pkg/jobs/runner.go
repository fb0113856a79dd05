// Package jobs owns the job lifecycle: submission, the per-job worker
// goroutine, panic containment, result persistence, and browser-session
// release. Concurrency exists only across jobs; each job's workflow runs as
// a single sequential thread of control over its own state record.
package jobs

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/entrhq/surf/pkg/agent"
	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/status"
	"github.com/entrhq/surf/pkg/store"
)

// Request is one job submission.
type Request struct {
	URL      string `json:"url"`
	Query    string `json:"query"`
	Provider string `json:"llm_provider"`
	Stealth  bool   `json:"stealth"`
}

// Runner executes submitted jobs, each in its own goroutine with its own
// browser session.
type Runner struct {
	engine   *agent.Engine
	browsers *browser.Manager
	broker   *status.Broker
	results  *store.Store
	log      *logging.Logger
	maxSteps int
}

// NewRunner wires a runner from its collaborators.
func NewRunner(engine *agent.Engine, browsers *browser.Manager, broker *status.Broker, results *store.Store, log *logging.Logger, maxSteps int) *Runner {
	return &Runner{
		engine:   engine,
		browsers: browsers,
		broker:   broker,
		results:  results,
		log:      log,
		maxSteps: maxSteps,
	}
}

// Submit assigns a job id and starts the job in the background.
func (r *Runner) Submit(req Request) string {
	jobID := uuid.New().String()
	r.broker.Push(jobID, agent.EventJobQueued, nil)
	go r.run(jobID, req)
	return jobID
}

// run drives one job to completion. Every exit path persists a result
// snapshot, pushes a terminal event, and releases the browser session.
func (r *Runner) run(jobID string, req Request) {
	r.broker.Push(jobID, agent.EventJobInitiated, nil)

	st := agent.NewState(jobID, req.Query, req.URL, req.Provider, r.maxSteps)
	var jobErr error

	defer func() {
		if rec := recover(); rec != nil {
			jobErr = fmt.Errorf("panic in job worker: %v", rec)
			r.log.Errorf("job %s panicked: %v\n%s", jobID, rec, debug.Stack())
			r.broker.Push(jobID, agent.EventJobFailed, map[string]any{
				"error": jobErr.Error(),
				"trace": string(debug.Stack()),
			})
		}
		r.finalize(jobID, st, jobErr)
	}()

	session, err := r.browsers.NewSession(jobID, req.URL, req.Stealth)
	if err != nil {
		jobErr = fmt.Errorf("failed to open browser session: %w", err)
		r.log.Errorf("job %s: %v", jobID, jobErr)
		r.broker.Push(jobID, agent.EventJobFailed, map[string]any{"error": jobErr.Error()})
		return
	}
	defer session.Close()

	r.broker.Push(jobID, agent.EventJobStarted, map[string]any{
		"provider": req.Provider,
		"query":    req.Query,
		"stealth":  req.Stealth,
	})
	st.URL = session.URL()

	terminal, err := r.engine.Run(context.Background(), st, session)
	if err != nil {
		jobErr = err
		r.log.Errorf("job %s failed: %v", jobID, err)
		r.broker.Push(jobID, agent.EventJobFailed, map[string]any{"error": err.Error()})
		return
	}
	r.log.Infof("job %s finished: %s", jobID, terminal)
}

// finalize produces the result snapshot and the closing stream event. The
// snapshot is written even when the job failed, carrying whatever narrative
// accumulated.
func (r *Runner) finalize(jobID string, st *agent.State, jobErr error) {
	result := store.Result{
		JobID:            jobID,
		Results:          st.Results,
		Screenshots:      st.Screenshots,
		ExecutionSummary: st.ExecutionSummary,
	}
	if len(result.ExecutionSummary) == 0 {
		result.ExecutionSummary = []string{"Job did not complete."}
	}
	if jobErr != nil {
		result.Error = jobErr.Error()
	}

	if err := r.results.Persist(result); err != nil {
		r.log.Errorf("job %s: failed to persist result: %v", jobID, err)
	}

	if jobErr != nil {
		r.broker.Push(jobID, agent.EventJobFailed, nil)
		return
	}
	r.broker.Push(jobID, agent.EventJobDone, nil)
}
