package dialogue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"PrankTerminal/internal/typewriter"
)

type mutationLog struct {
	mu        sync.Mutex
	mutations []typewriter.Mutation
}

func (l *mutationLog) OnMutation(m typewriter.Mutation) {
	l.mu.Lock()
	l.mutations = append(l.mutations, m)
	l.mu.Unlock()
}

func (l *mutationLog) snapshot() []typewriter.Mutation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]typewriter.Mutation(nil), l.mutations...)
}

type recordingEffects struct {
	entered   []StateID
	completed map[StateID]int
}

func (e *recordingEffects) OnEnter(id StateID, iteration int) {
	e.entered = append(e.entered, id)
}

func (e *recordingEffects) OnComplete(id StateID, iterations int) {
	if e.completed == nil {
		e.completed = make(map[StateID]int)
	}
	e.completed[id] = iterations
}

func newTestMachine(t *testing.T) (*Machine, *mutationLog, *typewriter.RecordingClock) {
	t.Helper()
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry failed: %v", err)
	}
	clock := &typewriter.RecordingClock{}
	surface := typewriter.NewTerminal()
	log := &mutationLog{}
	surface.Observe(log)
	m := NewMachine(reg, typewriter.NewEngine(clock), surface, DefaultPacing(), nil)
	return m, log, clock
}

func texts(s *typewriter.Surface) []string {
	var out []string
	for _, view := range s.Snapshot() {
		out = append(out, view.Text)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEnterStartRendersChoices(t *testing.T) {
	m, _, _ := newTestMachine(t)

	st, err := m.Enter(context.Background(), StateStart)
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if st.Iterations != 1 {
		t.Errorf("expected 1 iteration, got %d", st.Iterations)
	}

	want := []string{"Who am I ?", "Hello | World"}
	if got := texts(m.Surface()); !equalStrings(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}

	blocks := m.Surface().Blocks()
	controls := blocks[1].Controls()
	if len(controls) != 2 {
		t.Fatalf("expected 2 controls, got %d", len(controls))
	}
	for _, c := range controls {
		if c.Target != string(StateStage2) {
			t.Errorf("control %q targets %q, expected %s", c.Label, c.Target, StateStage2)
		}
	}
}

func TestEnterCleansUpBeforeWriting(t *testing.T) {
	m, log, _ := newTestMachine(t)
	ctx := context.Background()

	if _, err := m.Enter(ctx, StateStart); err != nil {
		t.Fatalf("Enter START failed: %v", err)
	}
	before := len(log.snapshot())
	previous := m.Surface().Blocks()

	if _, err := m.Enter(ctx, StateStage2); err != nil {
		t.Fatalf("Enter STAGE_2 failed: %v", err)
	}
	mutations := log.snapshot()[before:]

	removed := 0
	for _, mut := range mutations {
		switch mut.Kind {
		case typewriter.MutationRemove:
			removed++
		case typewriter.MutationAppend:
			if removed != len(previous) {
				t.Fatalf("block appended after %d of %d removals", removed, len(previous))
			}
		}
	}
	if removed != len(previous) {
		t.Errorf("expected %d removals, got %d", len(previous), removed)
	}

	// Most recent block goes first.
	var order []int
	for _, mut := range mutations {
		if mut.Kind == typewriter.MutationRemove {
			order = append(order, mut.Block)
		}
	}
	for i, id := range order {
		if want := previous[len(previous)-1-i].ID(); id != want {
			t.Errorf("removal %d: expected block %d, got %d", i, want, id)
		}
	}

	want := []string{"Not very smart I see ...", "Let's try something a bit easier. Who's the lowest ?", "2 | 3"}
	if got := texts(m.Surface()); !equalStrings(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestStage3ArmsCloseDot(t *testing.T) {
	m, _, clock := newTestMachine(t)

	if _, err := m.Enter(context.Background(), StateStage3); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	target, ok := m.Surface().Chrome().Armed(typewriter.DotClose)
	if !ok || target != string(StateStage4) {
		t.Errorf("expected close dot armed with STAGE_4, got %q %v", target, ok)
	}
	for _, view := range m.Surface().Snapshot() {
		if len(view.Controls) > 0 {
			t.Errorf("STAGE_3 should render no choices, found %+v", view.Controls)
		}
	}

	var pauses int
	for _, d := range clock.Sleeps() {
		if d == time.Second {
			pauses++
		}
	}
	if pauses != 2 {
		t.Errorf("expected 2 one-second pauses, got %d", pauses)
	}
}

func TestStage4VisitTiers(t *testing.T) {
	m, _, _ := newTestMachine(t)
	ctx := context.Background()

	visits := [][]string{
		{"And you instantly click on it ?", "What if I was telling you to jump out of the windows ??"},
		{"Stop now, that's embarassing for the both of us"},
		{"You can stop that now, I need to go to sleep"},
		{"You can stop that now, I need to go to sleep"},
	}
	for i, want := range visits {
		st, err := m.Enter(ctx, StateStage4)
		if err != nil {
			t.Fatalf("visit %d: Enter failed: %v", i, err)
		}
		if st.Iterations != i+1 {
			t.Errorf("visit %d: expected %d iterations, got %d", i, i+1, st.Iterations)
		}

		var said []string
		for _, view := range m.Surface().Snapshot() {
			if len(view.Controls) == 0 {
				said = append(said, view.Text)
			}
		}
		if !equalStrings(said, want) {
			t.Errorf("visit %d: expected %q, got %q", i, want, said)
		}
	}

	// From the third visit on, the visitor is offered the way out.
	var closeOffered bool
	for _, view := range m.Surface().Snapshot() {
		for _, c := range view.Controls {
			if c.Action == ActionClose {
				closeOffered = true
			}
		}
	}
	if !closeOffered {
		t.Error("expected a close control after the third visit")
	}
}

func TestIterationsCountCompletedVisitsOnly(t *testing.T) {
	m, _, _ := newTestMachine(t)
	effects := &recordingEffects{}
	m.effects = effects

	if _, err := m.Enter(context.Background(), StateStage2); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if got := m.Registry().Iterations(StateStage2); got != 1 {
		t.Errorf("expected 1 iteration after a three-block script, got %d", got)
	}
	if effects.completed[StateStage2] != 1 {
		t.Errorf("expected OnComplete with 1, got %d", effects.completed[StateStage2])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Enter(ctx, StateStage2); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if got := m.Registry().Iterations(StateStage2); got != 1 {
		t.Errorf("aborted visit must not count, got %d", got)
	}
	if len(effects.entered) != 2 {
		t.Errorf("expected 2 OnEnter calls, got %d", len(effects.entered))
	}
}

func TestEnterUnknownState(t *testing.T) {
	m, log, _ := newTestMachine(t)
	if _, err := m.Enter(context.Background(), "NOPE"); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("expected ErrUnknownState, got %v", err)
	}
	if n := len(log.snapshot()); n != 0 {
		t.Errorf("unknown state must not touch the surface, saw %d mutations", n)
	}
}

func TestEnterRejectsOverlappingTransitions(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry failed: %v", err)
	}
	surface := typewriter.NewTerminal()
	m := NewMachine(reg, typewriter.NewEngine(typewriter.RealClock()), surface, DefaultPacing(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Enter(ctx, StateStage3)
		done <- err
	}()

	deadline := time.Now().Add(time.Second)
	for !m.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("first transition never started")
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := m.Enter(context.Background(), StateStart); !errors.Is(err, ErrTransitionInProgress) {
		t.Errorf("expected ErrTransitionInProgress, got %v", err)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancelled transition, got %v", err)
	}
}

func TestRenderChoicesEscapes(t *testing.T) {
	markup := RenderChoices([]Choice{
		{Label: "<b>A</b>", Target: "S"},
		{Label: "Close", Action: ActionClose},
	})
	frag, err := typewriter.ParseFragment(markup)
	if err != nil {
		t.Fatalf("ParseFragment failed: %v", err)
	}
	if frag.Text != "<b>A</b> | Close" {
		t.Errorf("unexpected text %q", frag.Text)
	}
	if len(frag.Controls) != 2 || frag.Controls[0].Target != "S" || frag.Controls[1].Action != ActionClose {
		t.Errorf("unexpected controls %+v", frag.Controls)
	}
}
