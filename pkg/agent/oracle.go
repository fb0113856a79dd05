package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entrhq/surf/pkg/agent/prompts"
	"github.com/entrhq/surf/pkg/llm"
)

// ReasoningClient is the reasoning-capability boundary. llm.Registry
// satisfies it; tests inject fakes. The transient-retry policy lives behind
// this boundary, not in the workflow.
type ReasoningClient interface {
	Respond(ctx context.Context, providerID, systemPrompt, userPrompt string, images []string) (string, error)
}

// fallbackThought is recorded when the reasoner's output cannot be repaired
// into a usable action.
const fallbackThought = "Invalid response from LLM"

type actionResponse struct {
	Thought string `json:"thought"`
	Action  Action `json:"action"`
}

// generatePlan asks the reasoning capability for the initial plan. A
// transport failure propagates: without a plan there is no useful recovery.
// An unusable decoded plan degrades to a minimal single-step plan instead.
func (e *Engine) generatePlan(ctx context.Context, st *State) (Plan, error) {
	text, err := e.llm.Respond(ctx, st.Provider, prompts.PlannerSystemPrompt, prompts.Planner(st.Query, st.URL), nil)
	if err != nil {
		return Plan{}, err
	}

	var plan Plan
	if err := llm.DecodeObject(text, &plan); err != nil || len(plan.Steps) == 0 {
		return fallbackPlan(st.Query), nil
	}
	return plan, nil
}

func fallbackPlan(query string) Plan {
	return Plan{
		Objective: query,
		Intent:    query,
		Steps:     []string{"Complete the objective on the current page, then finish the job."},
	}
}

// nextAction asks the reasoning capability for exactly one action given the
// current page view. Malformed output never propagates: it degrades to the
// safe wait action. A transport failure after the call-boundary retries does
// propagate.
func (e *Engine) nextAction(ctx context.Context, st *State, elements, screenshotPath string) (Action, string, error) {
	prompt := prompts.Agent(st.Plan.Steps, st.CurrentTask, st.URL, st.History, elements)

	var images []string
	if screenshotPath != "" {
		images = []string{screenshotPath}
	}

	text, err := e.llm.Respond(ctx, st.Provider, prompts.AgentSystemPrompt, prompt, images)
	if err != nil {
		return Action{}, "", err
	}

	var resp actionResponse
	if err := llm.DecodeObject(text, &resp); err != nil {
		return WaitAction(), fallbackThought, nil
	}
	if resp.Action.Kind == "" {
		resp.Action.Kind = ActionInvalid
	}
	if resp.Thought == "" {
		resp.Thought = "No thought provided."
	}
	return resp.Action, resp.Thought, nil
}

// analyzeResearch turns raw search hits into a short actionable summary.
// Errors are returned for the caller to fold into a degraded summary.
func (e *Engine) analyzeResearch(ctx context.Context, st *State, hits any) (string, error) {
	contextJSON, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode search hits: %w", err)
	}

	prompt := prompts.Researcher(st.Query, st.CurrentTask, st.LastError, string(contextJSON))
	return e.llm.Respond(ctx, st.Provider, prompts.ResearcherSystemPrompt, prompt, nil)
}

// requestRevisedPlan asks for a complete replacement plan after research.
// When the replacement cannot be decoded into a usable plan, the prior plan
// is kept so the loop can still re-attempt the task.
func (e *Engine) requestRevisedPlan(ctx context.Context, st *State) (Plan, error) {
	planJSON, err := json.MarshalIndent(st.Plan, "", "  ")
	if err != nil {
		return Plan{}, fmt.Errorf("failed to encode current plan: %w", err)
	}

	prompt := prompts.PlanUpdater(string(planJSON), st.CurrentTask, st.LastError, st.ResearchSummary)
	text, err := e.llm.Respond(ctx, st.Provider, prompts.PlanUpdaterSystemPrompt, prompt, nil)
	if err != nil {
		return Plan{}, err
	}

	var revised Plan
	if err := llm.DecodeObject(text, &revised); err != nil || len(revised.Steps) == 0 {
		return st.Plan, nil
	}
	return revised, nil
}
