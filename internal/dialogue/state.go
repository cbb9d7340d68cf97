package dialogue

// State is one node of the dialogue graph.
//
// Scripts holds one script per visit tier: Scripts[0] runs on the first
// visit, Scripts[1] on the second, and the last entry on every visit after
// that. Most states have a single script.
type State struct {
	ID         StateID  `json:"id" jsonschema:"required"`
	Scripts    []Script `json:"scripts" jsonschema:"required,minItems=1"`
	Iterations int      `json:"-"` // Completed visits
}

// Clone returns a copy of the state definition with a zero visit counter.
func (s *State) Clone() *State {
	clone := &State{ID: s.ID, Scripts: make([]Script, len(s.Scripts))}
	for i, script := range s.Scripts {
		c := Script{
			Lines:   append([]Line(nil), script.Lines...),
			Choices: append([]Choice(nil), script.Choices...),
		}
		if script.Trigger != nil {
			trigger := *script.Trigger
			c.Trigger = &trigger
		}
		clone.Scripts[i] = c
	}
	return clone
}

// targets lists every state this state can transition to.
func (s *State) targets() []StateID {
	var out []StateID
	for _, script := range s.Scripts {
		for _, c := range script.Choices {
			if c.Target != "" {
				out = append(out, c.Target)
			}
		}
		if script.Trigger != nil {
			out = append(out, script.Trigger.Target)
		}
	}
	return out
}

// ScriptFor selects the script to run for a visit, given how many visits
// have already completed. Negative counts select the first tier.
func (s *State) ScriptFor(iterations int) Script {
	if len(s.Scripts) == 0 {
		return Script{}
	}
	if iterations < 0 {
		iterations = 0
	}
	if iterations >= len(s.Scripts) {
		iterations = len(s.Scripts) - 1
	}
	return s.Scripts[iterations]
}
