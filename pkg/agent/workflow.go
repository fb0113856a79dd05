// Package agent implements the browser-automation workflow: a fixed graph of
// phases (Planner, Reasoner, Executor, Researcher, Plan-updater) driven over
// a single exclusively-owned state record, with a pure Router deciding
// continue / retry / terminate after every executor pass.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/search"
)

// Browser is the minimal live-page surface the workflow needs. One instance
// belongs to exactly one job.
type Browser interface {
	// URL returns the page's current location.
	URL() string

	// Observe reads the current page, tags its interactive elements with
	// stable short identifiers, applies the tagged markup back to the live
	// page, and returns the element listing for the reasoner.
	Observe(ctx context.Context) (elements string, err error)

	// Screenshot captures the viewport into the job's artifact directory.
	// webPath is the stable relative path recorded in state and served over
	// HTTP; filePath locates the artifact on disk for vision prompts.
	Screenshot(name string) (webPath, filePath string, err error)

	// Execute performs one action against the page, returning an error on
	// any timeout or interaction failure. Extract and finish actions are
	// settle-only at this layer.
	Execute(ctx context.Context, action Action) error
}

// ErrRecursionLimit fires when the phase loop exceeds its circuit-breaker
// ceiling, independent of the job's max_steps.
var ErrRecursionLimit = errors.New("workflow recursion limit reached")

// DefaultRecursionLimit bounds phase-loop iterations per job.
const DefaultRecursionLimit = 100

// maxElementTokens caps the tagged element listing fed into the reasoner
// prompt.
const maxElementTokens = 8000

// Engine runs the workflow graph for jobs. One Engine serves many jobs
// concurrently; all per-job mutable data lives in the State record.
type Engine struct {
	llm            ReasoningClient
	search         search.Client
	status         StatusFunc
	log            *logging.Logger
	recursionLimit int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRecursionLimit overrides the phase-loop circuit breaker.
func WithRecursionLimit(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.recursionLimit = n
		}
	}
}

// WithSearch wires the optional research capability. A nil client leaves
// recovery running with a degraded research summary.
func WithSearch(client search.Client) EngineOption {
	return func(e *Engine) {
		e.search = client
	}
}

// WithStatus wires the status-event sink.
func WithStatus(fn StatusFunc) EngineOption {
	return func(e *Engine) {
		e.status = fn
	}
}

// NewEngine creates a workflow engine around the given reasoning client.
func NewEngine(reasoner ReasoningClient, log *logging.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		llm:            reasoner,
		log:            log,
		recursionLimit: DefaultRecursionLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) push(jobID, msg string, details map[string]any) {
	if e.status != nil {
		e.status(jobID, msg, details)
	}
}

func (e *Engine) logf(format string, args ...any) {
	if e.log != nil {
		e.log.Infof(format, args...)
	}
}

// Run drives one job from planning to a terminal status. The returned error
// is non-nil only for job-fatal conditions (planning failure, browser
// failure, reasoning-call exhaustion, recursion-limit breach); every normal
// termination comes back as a TerminalStatus with a nil error.
func (e *Engine) Run(ctx context.Context, st *State, page Browser) (TerminalStatus, error) {
	if err := e.plan(ctx, st, page); err != nil {
		return StatusFailed, fmt.Errorf("planning failed: %w", err)
	}

	for iterations := 0; ; iterations++ {
		if iterations >= e.recursionLimit {
			return StatusFailed, fmt.Errorf("%w after %d iterations (job %s)", ErrRecursionLimit, iterations, st.JobID)
		}

		if err := e.reason(ctx, st, page); err != nil {
			return StatusFailed, fmt.Errorf("reasoning failed at step %d: %w", st.Step, err)
		}

		e.executeAction(ctx, st, page)

		decision := Route(st)
		switch decision.Next {
		case TransitionContinue:

		case TransitionRetry:
			e.logf("job %s: step %d failed (%s), entering recovery (retry %d)", st.JobID, st.Step, st.LastError, st.RetryCount)
			e.research(ctx, st)
			if err := e.revisePlan(ctx, st); err != nil {
				return StatusFailed, fmt.Errorf("plan revision failed: %w", err)
			}

		case TransitionEnd:
			e.terminate(st, decision)
			return decision.Status, nil
		}
	}
}

// terminate emits the terminal event and records the reason in the
// execution summary. The retries-halt summary line is already written by the
// Router.
func (e *Engine) terminate(st *State, d Decision) {
	switch d.Status {
	case StatusMaxSteps:
		e.push(st.JobID, EventAgentStopped, map[string]any{"reason": d.Reason})
		st.Logf("\n[Job Stopped] %s", d.Reason)
	case StatusMaxRetries:
		e.push(st.JobID, EventAgentStopped, map[string]any{"reason": d.Reason})
	default:
		e.push(st.JobID, EventAgentFinished, map[string]any{"reason": d.Reason})
		st.Logf("\n[Job Finished] %s", d.Reason)
	}
	e.logf("job %s terminated: %s (%s)", st.JobID, d.Status, d.Reason)
}
