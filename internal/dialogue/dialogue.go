package dialogue

import "time"

// StateID uniquely identifies a dialogue state.
type StateID string

// ActionClose asks the host to close the terminal window.
const ActionClose = "close"

// Choice is a labelled transition rendered as a clickable control.
// Exactly one of Target and Action is set.
type Choice struct {
	Label  string  `json:"label" jsonschema:"required"`
	Target StateID `json:"target,omitempty"` // State entered when chosen
	Action string  `json:"action,omitempty" jsonschema:"enum=close"`
}

// Trigger arms an out-of-band header control, e.g. the red window dot.
type Trigger struct {
	Control string  `json:"control" jsonschema:"required"` // Header control name, e.g. "close"
	Target  StateID `json:"target" jsonschema:"required"`
}

// Line is one "say" action of a script.
type Line struct {
	Text         string `json:"text" jsonschema:"required"`
	DurationMS   int    `json:"duration_ms,omitempty"`    // Total typing time
	PauseAfterMS int    `json:"pause_after_ms,omitempty"` // Plain delay after the line
	Rich         bool   `json:"rich,omitempty"`           // Text is a markup fragment
}

// Duration returns the total typing time for the line.
func (l Line) Duration() time.Duration { return time.Duration(l.DurationMS) * time.Millisecond }

// PauseAfter returns the delay inserted after the line is typed.
func (l Line) PauseAfter() time.Duration {
	return time.Duration(l.PauseAfterMS) * time.Millisecond
}

// Script is what a state does when entered: say its lines in order, then
// either render Choices or arm Trigger (or neither, for terminal states).
type Script struct {
	Lines   []Line   `json:"lines"`
	Choices []Choice `json:"choices,omitempty"`
	Trigger *Trigger `json:"trigger,omitempty"`
}
