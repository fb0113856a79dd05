package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/surf/pkg/agent/prompts"
	"github.com/entrhq/surf/pkg/search"
)

// fakeReasoner scripts responses per phase, dispatching on the system prompt.
// Action responses are consumed in order; the last one repeats.
type fakeReasoner struct {
	planText     string
	planErr      error
	actionTexts  []string
	actionCalls  int
	researchText string
	revisedText  string
	reviseCalls  int
}

func (f *fakeReasoner) Respond(_ context.Context, _, systemPrompt, _ string, _ []string) (string, error) {
	switch systemPrompt {
	case prompts.PlannerSystemPrompt:
		return f.planText, f.planErr
	case prompts.AgentSystemPrompt:
		i := f.actionCalls
		f.actionCalls++
		if i >= len(f.actionTexts) {
			i = len(f.actionTexts) - 1
		}
		return f.actionTexts[i], nil
	case prompts.ResearcherSystemPrompt:
		return f.researchText, nil
	case prompts.PlanUpdaterSystemPrompt:
		f.reviseCalls++
		return f.revisedText, nil
	}
	return "", errors.New("unexpected system prompt")
}

// fakeBrowser records executed actions and fails the calls its script says to.
type fakeBrowser struct {
	executed   []Action
	failCalls  map[int]error
	elements   string
	currentURL string
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		failCalls:  map[int]error{},
		elements:   "[1] <button> Search",
		currentURL: "https://example.com",
	}
}

func (b *fakeBrowser) URL() string { return b.currentURL }

func (b *fakeBrowser) Observe(_ context.Context) (string, error) {
	return b.elements, nil
}

func (b *fakeBrowser) Screenshot(name string) (string, string, error) {
	return "screenshots/job/" + name, "", nil
}

func (b *fakeBrowser) Execute(_ context.Context, action Action) error {
	idx := len(b.executed)
	b.executed = append(b.executed, action)
	return b.failCalls[idx]
}

func planJSON(target int, steps ...string) string {
	plan := map[string]any{
		"objective": "test objective",
		"intent":    "test intent",
		"plan":      steps,
	}
	if target > 0 {
		plan["target_count"] = target
	}
	data, _ := json.Marshal(plan)
	return string(data)
}

func actionJSON(thought string, action map[string]any) string {
	data, _ := json.Marshal(map[string]any{"thought": thought, "action": action})
	return string(data)
}

func runWorkflow(t *testing.T, reasoner *fakeReasoner, page *fakeBrowser, opts ...EngineOption) (*State, TerminalStatus, error) {
	t.Helper()
	engine := NewEngine(reasoner, nil, opts...)
	st := NewState("job", "find the prices", "https://example.com", "fake", 40)
	status, err := engine.Run(context.Background(), st, page)
	return st, status, err
}

func TestRunFinishedByAgent(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(0, "click search", "finish up"),
		actionTexts: []string{
			actionJSON("clicking", map[string]any{"type": "click", "id": "1"}),
			actionJSON("all done", map[string]any{"type": "finish", "reason": "objective met"}),
		},
	}
	page := newFakeBrowser()

	st, status, err := runWorkflow(t, reasoner, page)
	require.NoError(t, err)
	assert.Equal(t, StatusFinishedByAgent, status)
	require.Len(t, page.executed, 2)
	assert.Equal(t, ActionClick, page.executed[0].Kind)
	assert.Equal(t, ActionFinish, page.executed[1].Kind)
	assert.Contains(t, st.ExecutionSummary[len(st.ExecutionSummary)-1], "[Job Finished]")
}

func TestRunPlanExhausted(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(0, "step one", "step two"),
		actionTexts: []string{
			actionJSON("go", map[string]any{"type": "click", "id": "1"}),
		},
	}
	page := newFakeBrowser()

	st, status, err := runWorkflow(t, reasoner, page)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, status)
	assert.Equal(t, 3, st.Step)
	assert.Len(t, page.executed, 2)
}

func TestRunMaxSteps(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(0, "a", "b", "c", "d", "e"),
		actionTexts: []string{
			actionJSON("go", map[string]any{"type": "click", "id": "1"}),
		},
	}
	page := newFakeBrowser()

	engine := NewEngine(reasoner, nil)
	st := NewState("job", "q", "https://example.com", "fake", 2)
	status, err := engine.Run(context.Background(), st, page)
	require.NoError(t, err)
	assert.Equal(t, StatusMaxSteps, status)
	assert.Contains(t, st.ExecutionSummary[len(st.ExecutionSummary)-1], "[Job Stopped]")
}

func TestRunRecoversFromSingleFailure(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(0, "click the thing"),
		actionTexts: []string{
			actionJSON("try", map[string]any{"type": "click", "id": "1"}),
			actionJSON("retry", map[string]any{"type": "click", "id": "1"}),
		},
		revisedText: planJSON(0, "click the thing again"),
	}
	page := newFakeBrowser()
	page.failCalls[0] = errors.New("element 1 not visible")

	st, status, err := runWorkflow(t, reasoner, page)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, status)
	assert.Equal(t, 1, reasoner.reviseCalls)
	assert.Equal(t, 0, st.RetryCount)
	assert.Equal(t, "click the thing again", st.Plan.Steps[0])
	assert.Equal(t, "Search capability not configured. Skipping research.", st.ResearchSummary)
}

func TestRunHaltsAfterMaxRetries(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(0, "click the thing"),
		actionTexts: []string{
			actionJSON("try", map[string]any{"type": "click", "id": "1"}),
		},
		revisedText: planJSON(0, "click the thing"),
	}
	page := newFakeBrowser()
	page.failCalls[0] = errors.New("timeout")
	page.failCalls[1] = errors.New("timeout")
	page.failCalls[2] = errors.New("timeout")

	st, status, err := runWorkflow(t, reasoner, page)
	require.NoError(t, err)
	assert.Equal(t, StatusMaxRetries, status)
	assert.Equal(t, 2, reasoner.reviseCalls)
	assert.Len(t, page.executed, 3)
	// No reasoner pass happens after the halt, and the step never advanced.
	assert.Equal(t, 3, reasoner.actionCalls)
	assert.Equal(t, 1, st.Step)
	assert.Contains(t, st.ExecutionSummary[len(st.ExecutionSummary)-1], "[Job Halted]")
}

func TestRunRetryCountSequenceAcrossRecovery(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(0, "click the thing", "finish up"),
		actionTexts: []string{
			actionJSON("try", map[string]any{"type": "click", "id": "1"}),
			actionJSON("retry", map[string]any{"type": "click", "id": "1"}),
			actionJSON("retry again", map[string]any{"type": "click", "id": "1"}),
			actionJSON("done", map[string]any{"type": "finish"}),
		},
		revisedText: planJSON(0, "click the thing", "finish up"),
	}
	page := newFakeBrowser()
	page.failCalls[0] = errors.New("timeout")
	page.failCalls[1] = errors.New("timeout")

	st, status, err := runWorkflow(t, reasoner, page)
	require.NoError(t, err)
	// Two consecutive failures, then a success: retry counter went 1, 2, 0
	// and the job carried on to a normal finish.
	assert.Equal(t, StatusFinishedByAgent, status)
	assert.Equal(t, 2, reasoner.reviseCalls)
	assert.Equal(t, 0, st.RetryCount)
	assert.Len(t, page.executed, 4)
}

func TestRunTargetCountReached(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(2, "extract the items", "sort the results", "extract more"),
		actionTexts: []string{
			actionJSON("extracting", map[string]any{
				"type":  "extract",
				"items": []map[string]any{{"title": "a"}, {"title": "b"}},
			}),
		},
	}
	page := newFakeBrowser()

	st, status, err := runWorkflow(t, reasoner, page)
	require.NoError(t, err)
	// Terminates on the collected count even though plan steps remain.
	assert.Equal(t, StatusTargetReached, status)
	assert.Len(t, st.Results, 2)
	assert.Len(t, page.executed, 1)
}

func TestRunGarbageActionFallsBackToWait(t *testing.T) {
	reasoner := &fakeReasoner{
		planText:    planJSON(0, "do something"),
		actionTexts: []string{"I refuse to emit JSON today."},
	}
	page := newFakeBrowser()

	st, status, err := runWorkflow(t, reasoner, page)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, status)
	require.Len(t, page.executed, 1)
	assert.Equal(t, ActionWait, page.executed[0].Kind)
	assert.Contains(t, st.ExecutionSummary[1], "Invalid response from LLM")
}

func TestRunInvalidActionCountsAsFailure(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(0, "do something"),
		actionTexts: []string{
			actionJSON("hmm", map[string]any{"type": "teleport"}),
			actionJSON("ok", map[string]any{"type": "finish"}),
		},
		revisedText: planJSON(0, "do something"),
	}
	page := newFakeBrowser()

	st, status, err := runWorkflow(t, reasoner, page)
	require.NoError(t, err)
	assert.Equal(t, StatusFinishedByAgent, status)
	// The invalid action never reaches the page.
	require.Len(t, page.executed, 1)
	assert.Equal(t, ActionFinish, page.executed[0].Kind)
	assert.Equal(t, 1, reasoner.reviseCalls)
	assert.Contains(t, st.ExecutionSummary[2], "Agent produced an invalid or empty action.")
}

func TestRunGarbagePlanDegradesToFallback(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: "no structured plan here",
		actionTexts: []string{
			actionJSON("finish", map[string]any{"type": "finish"}),
		},
	}
	page := newFakeBrowser()

	st, status, err := runWorkflow(t, reasoner, page)
	require.NoError(t, err)
	assert.Equal(t, StatusFinishedByAgent, status)
	require.Len(t, st.Plan.Steps, 1)
	assert.Equal(t, "Complete the objective on the current page, then finish the job.", st.Plan.Steps[0])
}

func TestRunPlannerTransportFailureIsFatal(t *testing.T) {
	reasoner := &fakeReasoner{planErr: errors.New("API down")}
	page := newFakeBrowser()

	_, status, err := runWorkflow(t, reasoner, page)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, status)
	assert.Contains(t, err.Error(), "planning failed")
	assert.Empty(t, page.executed)
}

func TestRunRecursionLimit(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(0, "a", "b", "c", "d", "e", "f", "g", "h", "i", "j"),
		actionTexts: []string{
			actionJSON("go", map[string]any{"type": "click", "id": "1"}),
		},
	}
	page := newFakeBrowser()

	_, status, err := runWorkflow(t, reasoner, page, WithRecursionLimit(3))
	require.Error(t, err)
	assert.Equal(t, StatusFailed, status)
	assert.ErrorIs(t, err, ErrRecursionLimit)
}

func TestRunOneScreenshotPerReasonerPass(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(0, "one", "two"),
		actionTexts: []string{
			actionJSON("go", map[string]any{"type": "click", "id": "1"}),
		},
	}
	page := newFakeBrowser()

	st, _, err := runWorkflow(t, reasoner, page)
	require.NoError(t, err)
	require.Len(t, st.Screenshots, 2)
	assert.Equal(t, "screenshots/job/01_step.png", st.Screenshots[0])
	assert.Equal(t, "screenshots/job/02_step.png", st.Screenshots[1])
}

func TestRunEmitsEventStream(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(0, "one"),
		actionTexts: []string{
			actionJSON("finish", map[string]any{"type": "finish"}),
		},
	}
	page := newFakeBrowser()

	var events []string
	sink := func(_ string, msg string, _ map[string]any) {
		events = append(events, msg)
	}

	_, status, err := runWorkflow(t, reasoner, page, WithStatus(sink))
	require.NoError(t, err)
	assert.Equal(t, StatusFinishedByAgent, status)
	assert.Equal(t, []string{
		EventPlanningStarted,
		EventPlanGenerated,
		EventAgentStep,
		EventScreenshotTaken,
		EventAgentThought,
		EventExecutingAction,
		EventAgentFinished,
	}, events)
}

// fakeSearch returns canned hits for the recovery pair.
type fakeSearch struct {
	calls int
}

func (f *fakeSearch) Search(_ context.Context, _ string) ([]search.Result, error) {
	f.calls++
	return []search.Result{{URL: "https://docs.example.com", Content: "press the blue button"}}, nil
}

func TestRunResearchFeedsPlanUpdate(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(0, "click the thing"),
		actionTexts: []string{
			actionJSON("try", map[string]any{"type": "click", "id": "1"}),
			actionJSON("retry", map[string]any{"type": "finish"}),
		},
		researchText: "Press the blue button instead.",
		revisedText:  planJSON(0, "press the blue button"),
	}
	page := newFakeBrowser()
	page.failCalls[0] = errors.New("element 1 not visible")

	searcher := &fakeSearch{}
	st, status, err := runWorkflow(t, reasoner, page, WithSearch(searcher))
	require.NoError(t, err)
	assert.Equal(t, StatusFinishedByAgent, status)
	assert.Equal(t, 1, searcher.calls)
	assert.Equal(t, "Press the blue button instead.", st.ResearchSummary)
	assert.Equal(t, "press the blue button", st.Plan.Steps[0])
}

func TestRunHistoryEntriesNameTaskAndOutcome(t *testing.T) {
	reasoner := &fakeReasoner{
		planText: planJSON(0, "click search"),
		actionTexts: []string{
			actionJSON("go", map[string]any{"type": "click", "id": "1"}),
		},
	}
	page := newFakeBrowser()

	st, _, err := runWorkflow(t, reasoner, page)
	require.NoError(t, err)
	require.NotEmpty(t, st.History)
	assert.Equal(t, fmt.Sprintf("Step 1 (Task: click search): Action `%s` -> Success.",
		Action{Kind: ActionClick, ElementID: "1"}), st.History[0])
}
