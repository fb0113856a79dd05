package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlannerIncludesObjectiveAndURL(t *testing.T) {
	prompt := Planner("find the cheapest laptop", "https://shop.example.com")
	assert.Contains(t, prompt, "find the cheapest laptop")
	assert.Contains(t, prompt, "https://shop.example.com")
}

func TestAgentRendersSections(t *testing.T) {
	prompt := Agent(
		[]string{"open search", "type query"},
		"open search",
		"https://shop.example.com",
		[]string{"Step 1 (Task: open search): Action `{\"type\":\"click\",\"id\":\"1\"}` -> Success."},
		"[1] <button> Search",
	)

	assert.Contains(t, prompt, "- open search\n- type query")
	assert.Contains(t, prompt, "[1] <button> Search")
	assert.Contains(t, prompt, "Success")
}

func TestAgentEmptySectionsGetPlaceholders(t *testing.T) {
	prompt := Agent([]string{"only step"}, "only step", "https://example.com", nil, "")
	assert.Contains(t, prompt, "No actions taken yet.")
	assert.Contains(t, prompt, "No interactive elements found on the page.")
}

func TestResearcherIncludesFailureContext(t *testing.T) {
	prompt := Researcher("find prices", "click checkout", "element 3 not visible", `[{"url": "https://docs.example.com"}]`)
	assert.Contains(t, prompt, "click checkout")
	assert.Contains(t, prompt, "element 3 not visible")
	assert.Contains(t, prompt, "docs.example.com")
}

func TestPlanUpdaterIncludesPriorPlan(t *testing.T) {
	prompt := PlanUpdater(`{"plan": ["old step"]}`, "old step", "timeout", "use the other button")
	assert.Contains(t, prompt, "old step")
	assert.Contains(t, prompt, "use the other button")
}
