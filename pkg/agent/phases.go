package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/surf/pkg/llm"
)

// plan is the Planner phase: one reasoning call producing the initial plan.
// This is the only phase without a retry safety net; an error here is
// job-fatal.
func (e *Engine) plan(ctx context.Context, st *State, page Browser) error {
	st.URL = page.URL()
	e.push(st.JobID, EventPlanningStarted, nil)

	plan, err := e.generatePlan(ctx, st)
	if err != nil {
		return err
	}
	st.Plan = plan

	e.push(st.JobID, EventPlanGenerated, map[string]any{"plan": plan})
	st.Logf("[Plan Generated]\nObjective: %s\nIntent: %s\nPlan:\n%s",
		orUnspecified(plan.Objective), orUnspecified(plan.Intent), indentSteps(plan.Steps))
	return nil
}

// reason is the Reasoner phase: resolve the current task, capture the page
// (screenshot plus tagged element listing), and obtain exactly one action.
// Outcome determination belongs to the Executor, not here.
func (e *Engine) reason(ctx context.Context, st *State, page Browser) error {
	e.push(st.JobID, EventAgentStep, map[string]any{"step": st.Step, "max_steps": st.MaxSteps})

	st.ResolveCurrentTask()

	name := fmt.Sprintf("%02d_step.png", st.Step)
	webPath, filePath, err := page.Screenshot(name)
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	st.Screenshots = append(st.Screenshots, webPath)
	e.push(st.JobID, EventScreenshotTaken, map[string]any{"step": st.Step, "path": webPath})

	elements, err := page.Observe(ctx)
	if err != nil {
		return fmt.Errorf("page observation failed: %w", err)
	}
	st.URL = page.URL()
	elements = llm.ClampTokens(elements, maxElementTokens)

	action, thought, err := e.nextAction(ctx, st, elements, filePath)
	if err != nil {
		return err
	}

	e.push(st.JobID, EventAgentThought, map[string]any{"thought": thought})
	st.LastAction = action
	st.Logf("\n[Step %d] Task: %s\n  -> Thought: %s", st.Step, st.CurrentTask, thought)
	return nil
}

// executeAction is the Executor phase. Action failures are classified into
// the outcome, never raised; the step pointer advances only on success and
// nowhere else.
func (e *Engine) executeAction(ctx context.Context, st *State, page Browser) {
	action := st.LastAction
	e.push(st.JobID, EventExecutingAction, map[string]any{"action": action})

	outcome := OutcomeSuccess
	var errMsg string

	if action.Kind == ActionInvalid {
		outcome = OutcomeFailed
		errMsg = "Agent produced an invalid or empty action."
	} else {
		if action.Kind == ActionExtract {
			st.Results = append(st.Results, action.Items...)
			e.push(st.JobID, EventPartialResult, map[string]any{"items": action.Items})
		}
		if err := page.Execute(ctx, action); err != nil {
			outcome = OutcomeFailed
			errMsg = firstLine(err.Error())
		}
	}

	if outcome == OutcomeFailed {
		e.push(st.JobID, EventActionFailed, map[string]any{"action": action, "error": errMsg})
	}

	st.LastOutcome = outcome
	st.LastError = errMsg
	st.AppendHistory(fmt.Sprintf("Step %d (Task: %s): Action `%s` -> %s.", st.Step, st.CurrentTask, action, outcome))

	summary := fmt.Sprintf("  -> Action: %s\n  -> Outcome: %s", action, outcome)
	if errMsg != "" {
		summary += fmt.Sprintf(" (%s)", errMsg)
	}
	st.Logf("%s", summary)

	if outcome == OutcomeSuccess {
		st.Step++
	}
}

// research is the Researcher phase of the recovery pair. It never returns an
// error: an unconfigured search capability or a failed call degrades into the
// research summary and the loop proceeds to the Plan-updater regardless.
func (e *Engine) research(ctx context.Context, st *State) {
	if e.search == nil {
		st.ResearchSummary = "Search capability not configured. Skipping research."
		return
	}

	query := fmt.Sprintf("How to achieve this task: '%s' on the website %s?", st.CurrentTask, st.URL)
	e.push(st.JobID, EventResearchStarted, map[string]any{"query": query})

	summary, err := func() (string, error) {
		hits, err := e.search.Search(ctx, query)
		if err != nil {
			return "", err
		}
		return e.analyzeResearch(ctx, st, hits)
	}()
	if err != nil {
		summary = fmt.Sprintf("Research failed: %s", err)
	}
	st.ResearchSummary = summary

	e.push(st.JobID, EventResearchComplete, map[string]any{"summary": st.ResearchSummary})
}

// revisePlan is the Plan-updater phase: the reasoning capability folds the
// research summary into a complete replacement plan. Control always returns
// to the Reasoner afterwards; the recovery pair has no routing decision of
// its own.
func (e *Engine) revisePlan(ctx context.Context, st *State) error {
	e.push(st.JobID, EventUpdatingPlan, nil)

	revised, err := e.requestRevisedPlan(ctx, st)
	if err != nil {
		return err
	}
	st.Plan = revised

	e.push(st.JobID, EventPlanUpdated, map[string]any{"plan": revised})
	st.Logf("\n[Plan Updated after Research]\nNew Plan:\n%s", indentSteps(revised.Steps))
	return nil
}

func indentSteps(steps []string) string {
	lines := make([]string, 0, len(steps))
	for _, step := range steps {
		lines = append(lines, "  - "+step)
	}
	return strings.Join(lines, "\n")
}

func orUnspecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
