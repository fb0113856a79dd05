package prompts

import (
	"fmt"
	"strings"
)

// Planner builds the plan-generation prompt from the objective and the
// current page location.
func Planner(query, url string) string {
	return fmt.Sprintf(plannerTemplate, query, url)
}

// Agent builds the next-action prompt. planSteps are rendered as a bullet
// list; empty history and element listings get explicit placeholders so the
// model never sees a blank section.
func Agent(planSteps []string, currentTask, url string, history []string, elements string) string {
	historyText := strings.Join(history, "\n")
	if historyText == "" {
		historyText = "No actions taken yet."
	}
	if elements == "" {
		elements = "No interactive elements found on the page."
	}
	return fmt.Sprintf(agentTemplate, bulletList(planSteps), currentTask, url, historyText, elements)
}

// Researcher builds the failure-analysis prompt over raw search hits.
func Researcher(query, currentTask, lastError, contextJSON string) string {
	return fmt.Sprintf(researcherTemplate, query, currentTask, lastError, contextJSON)
}

// PlanUpdater builds the replan prompt from the prior plan and the research
// summary.
func PlanUpdater(planJSON, currentTask, lastError, researchSummary string) string {
	return fmt.Sprintf(planUpdaterTemplate, planJSON, currentTask, lastError, researchSummary)
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
