package agent

import "fmt"

// Outcome classifies the most recent executed action.
type Outcome string

const (
	OutcomeSuccess Outcome = "Success"
	OutcomeFailed  Outcome = "Failed"
)

// historyLimit caps the rolling window of step summaries fed back to the
// reasoner. Older entries are evicted; the execution summary keeps the full
// narrative.
const historyLimit = 5

// planCompleteTask is the sentinel task used once the step pointer walks past
// the end of the plan.
const planCompleteTask = "All plan steps are complete. The final task is to finish the job."

// Plan is the structured plan produced by the Planner and replaced wholesale
// by the Plan-updater. It is never partially mutated.
type Plan struct {
	Objective string   `json:"objective"`
	Intent    string   `json:"intent"`
	Steps     []string `json:"plan"`

	// TargetCount caps result collection; zero means unbounded.
	TargetCount int `json:"target_count,omitempty"`
}

// State is the single mutable record threaded through a job's workflow. It
// is exclusively owned by whichever phase is currently executing; phases
// never run concurrently against the same state and no locking is needed.
type State struct {
	JobID    string
	Query    string
	URL      string
	Provider string

	Plan        Plan
	CurrentTask string

	// Step is the 1-based task pointer into the plan. It only advances on a
	// successful action outcome, in the Executor.
	Step     int
	MaxSteps int

	// RetryCount governs task-level self-healing, 0..2. Reset on any
	// success; the job halts once a failure would push it past 2.
	RetryCount int

	LastAction  Action
	LastOutcome Outcome
	LastError   string

	ResearchSummary string

	History          []string
	ExecutionSummary []string
	Results          []map[string]any
	Screenshots      []string
}

// NewState creates the state record for a fresh job with all counters zeroed
// and collections empty.
func NewState(jobID, query, url, provider string, maxSteps int) *State {
	return &State{
		JobID:            jobID,
		Query:            query,
		URL:              url,
		Provider:         provider,
		Step:             1,
		MaxSteps:         maxSteps,
		History:          []string{},
		ExecutionSummary: []string{},
		Results:          []map[string]any{},
		Screenshots:      []string{},
	}
}

// ResolveCurrentTask derives the current task from the plan and step pointer,
// switching to the completion sentinel once the pointer exceeds the plan.
func (s *State) ResolveCurrentTask() {
	index := s.Step - 1
	if index < len(s.Plan.Steps) {
		s.CurrentTask = s.Plan.Steps[index]
		return
	}
	s.CurrentTask = planCompleteTask
}

// AppendHistory records a step summary, evicting the oldest entry beyond the
// rolling window.
func (s *State) AppendHistory(entry string) {
	s.History = append(s.History, entry)
	if len(s.History) > historyLimit {
		s.History = s.History[len(s.History)-historyLimit:]
	}
}

// Logf appends a formatted entry to the append-only execution summary.
func (s *State) Logf(format string, args ...any) {
	s.ExecutionSummary = append(s.ExecutionSummary, fmt.Sprintf(format, args...))
}
