package dialogue

import "PrankTerminal/internal/typewriter"

// Built-in state identifiers.
const (
	StateStart  StateID = "START"
	StateStage2 StateID = "STAGE_2"
	StateStage3 StateID = "STAGE_3"
	StateStage4 StateID = "STAGE_4"
)

// SeedStates defines the canonical joke dialogue. Each call returns fresh
// state values with zeroed visit counters.
func SeedStates() []*State {
	return []*State{
		// Opening riddle; both answers are wrong.
		{
			ID: StateStart,
			Scripts: []Script{{
				Lines: []Line{
					{Text: "Who am I ?", DurationMS: 500},
				},
				Choices: []Choice{
					{Label: "Hello", Target: StateStage2},
					{Label: "World", Target: StateStage2},
				},
			}},
		},

		{
			ID: StateStage2,
			Scripts: []Script{{
				Lines: []Line{
					{Text: "Not very smart I see ...", DurationMS: 500},
					{Text: "Let's try something a bit easier. Who's the lowest ?", DurationMS: 700},
				},
				Choices: []Choice{
					{Label: "2", Target: StateStage3},
					{Label: "3", Target: StateStage3},
				},
			}},
		},

		// No choices here: the only way forward is the red window dot.
		{
			ID: StateStage3,
			Scripts: []Script{{
				Lines: []Line{
					{Text: "Nah don't really care", DurationMS: 500, PauseAfterMS: 1000},
					{Text: "What now ?", DurationMS: 500, PauseAfterMS: 1000},
					{Text: "Have you tried closing me atleast ? There is a red dot on my top left", DurationMS: 500},
				},
				Trigger: &Trigger{Control: typewriter.DotClose, Target: StateStage4},
			}},
		},

		// Reacts to the visitor clicking the red dot, once per click.
		{
			ID: StateStage4,
			Scripts: []Script{
				{
					Lines: []Line{
						{Text: "And you instantly click on it ?", DurationMS: 500},
						{Text: "What if I was telling you to jump out of the windows ??", DurationMS: 500},
					},
				},
				{
					Lines: []Line{
						{Text: "Stop now, that's embarassing for the both of us", DurationMS: 500},
					},
				},
				{
					Lines: []Line{
						{Text: "You can stop that now, I need to go to sleep", DurationMS: 500},
					},
					Choices: []Choice{
						{Label: "Close this tab", Action: ActionClose},
					},
				},
			},
		},
	}
}

// DefaultRegistry builds a registry from SeedStates.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(StateStart, SeedStates())
}
