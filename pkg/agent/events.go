package agent

// Status event names pushed over the job's event stream. The stream is
// best-effort; none of these block the workflow.
const (
	EventJobQueued        = "job_queued"
	EventJobInitiated     = "job_initiated"
	EventJobStarted       = "job_started"
	EventPlanningStarted  = "planning_started"
	EventPlanGenerated    = "plan_generated"
	EventAgentStep        = "agent_step"
	EventScreenshotTaken  = "screenshot_taken"
	EventAgentThought     = "agent_thought"
	EventExecutingAction  = "executing_action"
	EventActionFailed     = "action_failed"
	EventPartialResult    = "partial_result"
	EventResearchStarted  = "research_started"
	EventResearchComplete = "research_complete"
	EventUpdatingPlan     = "updating_plan"
	EventPlanUpdated      = "plan_updated"
	EventAgentFinished    = "agent_finished"
	EventAgentStopped     = "agent_stopped"
	EventJobDone          = "job_done"
	EventJobFailed        = "job_failed"
)

// StatusFunc pushes one status event for a job. Implementations must be
// fire-and-forget: dropping an event is acceptable, blocking the job is not.
type StatusFunc func(jobID, msg string, details map[string]any)
