package agent

import "encoding/json"

// ActionKind enumerates the closed vocabulary of browser interactions the
// reasoner may choose. Anything outside the vocabulary decodes to
// ActionInvalid rather than silently falling through.
type ActionKind string

const (
	ActionClick      ActionKind = "click"
	ActionPressEnter ActionKind = "press_enter"
	ActionFill       ActionKind = "fill"
	ActionScroll     ActionKind = "scroll"
	ActionWait       ActionKind = "wait"
	ActionExtract    ActionKind = "extract"
	ActionFinish     ActionKind = "finish"
	ActionInvalid    ActionKind = "invalid"
)

var validKinds = map[ActionKind]struct{}{
	ActionClick:      {},
	ActionPressEnter: {},
	ActionFill:       {},
	ActionScroll:     {},
	ActionWait:       {},
	ActionExtract:    {},
	ActionFinish:     {},
}

// Action is one atomic browser interaction chosen by the Reasoner per pass.
// Exactly one action is produced per reasoning pass, never a batch.
type Action struct {
	Kind ActionKind `json:"type"`

	// ElementID targets a tagged interactive element (click, press_enter, fill).
	ElementID string `json:"id,omitempty"`

	// Text is the content to write for fill actions.
	Text string `json:"text,omitempty"`

	// Direction is "down" or "up" for scroll actions.
	Direction string `json:"direction,omitempty"`

	// Items carries extracted records for extract actions.
	Items []map[string]any `json:"items,omitempty"`

	// Reason is the agent-supplied completion reason for finish actions.
	Reason string `json:"reason,omitempty"`
}

// UnmarshalJSON decodes an action, mapping unknown or missing kinds to
// ActionInvalid.
func (a *Action) UnmarshalJSON(data []byte) error {
	type plain Action
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Action(raw)
	if _, ok := validKinds[a.Kind]; !ok {
		a.Kind = ActionInvalid
	}
	return nil
}

// WaitAction is the safe default substituted when the reasoner's output is
// unusable. Waiting is harmless on any page.
func WaitAction() Action {
	return Action{Kind: ActionWait}
}

// String renders the action as compact JSON for history and log entries.
func (a Action) String() string {
	data, err := json.Marshal(a)
	if err != nil {
		return string(a.Kind)
	}
	return string(data)
}
