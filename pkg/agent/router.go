package agent

import "fmt"

// Transition tells the driver loop where control goes after an executor
// pass.
type Transition int

const (
	// TransitionContinue loops back to the Reasoner.
	TransitionContinue Transition = iota

	// TransitionRetry detours through the recovery pair before returning to
	// the Reasoner.
	TransitionRetry

	// TransitionEnd terminates the workflow.
	TransitionEnd
)

// TerminalStatus names why a job ended. Every job terminates with exactly
// one of these.
type TerminalStatus string

const (
	StatusDone            TerminalStatus = "done"
	StatusFailed          TerminalStatus = "failed"
	StatusMaxSteps        TerminalStatus = "stopped-at-max-steps"
	StatusMaxRetries      TerminalStatus = "halted-at-max-retries"
	StatusFinishedByAgent TerminalStatus = "finished-by-agent"
	StatusTargetReached   TerminalStatus = "target-count-reached"
)

// maxRetries is the ceiling on consecutive recovery detours for one failing
// task.
const maxRetries = 2

// Decision is the Router's verdict.
type Decision struct {
	Next Transition

	// Status and Reason are set when Next is TransitionEnd.
	Status TerminalStatus
	Reason string
}

// Route inspects the latest outcome and the state counters and decides the
// next transition. Its only side effects are on the retry counter and, when
// halting on exhausted retries, a final execution-summary entry.
//
// The check order is deliberate and observable: a failure always takes the
// retry/halt path before any completion check, and the target-count check
// precedes the finish, plan-length, and step-ceiling checks. Reordering
// changes which termination reason a job reports.
func Route(s *State) Decision {
	if s.LastOutcome == OutcomeFailed {
		if s.RetryCount < maxRetries {
			s.RetryCount++
			return Decision{Next: TransitionRetry}
		}
		s.Logf("\n[Job Halted] Maximum retries reached for a failing step.")
		return Decision{
			Next:   TransitionEnd,
			Status: StatusMaxRetries,
			Reason: "Maximum retries reached for a failing step.",
		}
	}

	s.RetryCount = 0

	if s.Plan.TargetCount > 0 && len(s.Results) >= s.Plan.TargetCount {
		return Decision{
			Next:   TransitionEnd,
			Status: StatusTargetReached,
			Reason: collectedReason(len(s.Results), s.Plan.TargetCount),
		}
	}

	if s.LastAction.Kind == ActionFinish {
		reason := s.LastAction.Reason
		if reason == "" {
			reason = "Task completed."
		}
		return Decision{
			Next:   TransitionEnd,
			Status: StatusFinishedByAgent,
			Reason: reason,
		}
	}

	if s.Step > len(s.Plan.Steps) {
		return Decision{
			Next:   TransitionEnd,
			Status: StatusDone,
			Reason: "All plan steps completed.",
		}
	}

	if s.Step > s.MaxSteps {
		return Decision{
			Next:   TransitionEnd,
			Status: StatusMaxSteps,
			Reason: "Max steps reached.",
		}
	}

	return Decision{Next: TransitionContinue}
}

func collectedReason(collected, target int) string {
	return fmt.Sprintf("Collected %d/%d items.", collected, target)
}
