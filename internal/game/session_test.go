package game

import (
	"context"
	"errors"
	"sync"
	"testing"

	"PrankTerminal/internal/dialogue"
	"PrankTerminal/internal/typewriter"
)

type drain struct {
	mu   sync.Mutex
	msgs []OutboundMessage
	wg   sync.WaitGroup
}

func drainSession(s *Session) *drain {
	d := &drain{}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case msg := <-s.Outbound():
				d.mu.Lock()
				d.msgs = append(d.msgs, msg)
				d.mu.Unlock()
			case <-s.Done():
				for {
					select {
					case msg := <-s.Outbound():
						d.mu.Lock()
						d.msgs = append(d.msgs, msg)
						d.mu.Unlock()
					default:
						return
					}
				}
			}
		}
	}()
	return d
}

func (d *drain) ofType(kind string) []OutboundMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []OutboundMessage
	for _, m := range d.msgs {
		if m.Type == kind {
			out = append(out, m)
		}
	}
	return out
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	reg, err := dialogue.DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry failed: %v", err)
	}
	return NewHub(reg, typewriter.NewEngine(&typewriter.RecordingClock{}), dialogue.DefaultPacing())
}

// choiceBlock returns the id of the last block carrying controls.
func choiceBlock(t *testing.T, s *Session) int {
	t.Helper()
	views := s.Surface.Snapshot()
	for i := len(views) - 1; i >= 0; i-- {
		if len(views[i].Controls) > 0 {
			return views[i].ID
		}
	}
	t.Fatal("no block with controls")
	return 0
}

func TestSessionWalkthrough(t *testing.T) {
	h := newTestHub(t)
	s := h.Open()
	d := drainSession(s)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.PressHeader(ctx, typewriter.DotClose); !errors.Is(err, ErrNotArmed) {
		t.Errorf("red dot should do nothing yet, got %v", err)
	}

	if err := s.Activate(ctx, choiceBlock(t, s), 1); err != nil {
		t.Fatalf("choosing World failed: %v", err)
	}
	if err := s.Activate(ctx, choiceBlock(t, s), 0); err != nil {
		t.Fatalf("choosing 2 failed: %v", err)
	}
	if n := s.Machine.Registry().Iterations(dialogue.StateStage3); n != 1 {
		t.Fatalf("expected STAGE_3 visited once, got %d", n)
	}

	for i := 0; i < 3; i++ {
		if err := s.PressHeader(ctx, typewriter.DotClose); err != nil {
			t.Fatalf("red dot press %d failed: %v", i, err)
		}
	}
	if n := s.Machine.Registry().Iterations(dialogue.StateStage4); n != 3 {
		t.Errorf("expected 3 STAGE_4 visits, got %d", n)
	}

	if err := s.Activate(ctx, choiceBlock(t, s), 0); err != nil {
		t.Fatalf("close choice failed: %v", err)
	}

	s.Close()
	d.wg.Wait()

	if n := len(d.ofType(MsgClose)); n != 1 {
		t.Errorf("expected 1 close message, got %d", n)
	}
	states := d.ofType(MsgState)
	if len(states) != 6 {
		t.Fatalf("expected 6 state updates, got %d", len(states))
	}
	last := states[len(states)-1].Payload.(StateUpdate)
	if last.State != string(dialogue.StateStage4) || last.Iterations != 3 {
		t.Errorf("unexpected final state update %+v", last)
	}
	if len(d.ofType(MsgMutation)) == 0 {
		t.Error("expected mutation messages")
	}
}

func TestActivateRejectsStaleControls(t *testing.T) {
	h := newTestHub(t)
	s := h.Open()
	d := drainSession(s)
	defer func() {
		s.Close()
		d.wg.Wait()
	}()
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	stale := choiceBlock(t, s)
	if err := s.Activate(ctx, stale, 0); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if err := s.Activate(ctx, stale, 0); !errors.Is(err, typewriter.ErrNoSuchControl) {
		t.Errorf("expected ErrNoSuchControl for a removed block, got %v", err)
	}
	if err := s.Activate(ctx, choiceBlock(t, s), 9); !errors.Is(err, typewriter.ErrNoSuchControl) {
		t.Errorf("expected ErrNoSuchControl for a bad index, got %v", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	h := newTestHub(t)
	a := h.Open()
	b := h.Open()
	da, db := drainSession(a), drainSession(b)
	ctx := context.Background()

	if err := a.Enter(ctx, dialogue.StateStage4); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if n := b.Machine.Registry().Iterations(dialogue.StateStage4); n != 0 {
		t.Errorf("second session should be untouched, got %d", n)
	}
	if h.Count() != 2 {
		t.Errorf("expected 2 sessions, got %d", h.Count())
	}

	h.Close(a.ID)
	if _, ok := h.Get(a.ID); ok {
		t.Error("closed session should be forgotten")
	}
	if a.Send(OutboundMessage{Type: MsgState}) {
		t.Error("Send should fail after Close")
	}
	h.CloseAll()
	if h.Count() != 0 {
		t.Errorf("expected no sessions, got %d", h.Count())
	}
	da.wg.Wait()
	db.wg.Wait()
}

func TestHello(t *testing.T) {
	h := newTestHub(t)
	s := h.Open()
	d := drainSession(s)
	defer func() {
		s.Close()
		d.wg.Wait()
	}()

	if err := s.Enter(context.Background(), dialogue.StateStage3); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	hello := s.Hello()
	if hello.Type != MsgHello {
		t.Fatalf("expected hello, got %s", hello.Type)
	}
	payload := hello.Payload.(Hello)
	if len(payload.Header) != 3 {
		t.Fatalf("expected 3 header dots, got %d", len(payload.Header))
	}
	if !payload.Header[0].Armed || payload.Header[0].Target != string(dialogue.StateStage4) {
		t.Errorf("expected armed red dot, got %+v", payload.Header[0])
	}
	if len(payload.Blocks) != 3 {
		t.Errorf("expected 3 blocks, got %d", len(payload.Blocks))
	}
}

func TestOpenSkipsTakenIDs(t *testing.T) {
	h := newTestHub(t)
	ids := []string{"s-dup", "s-dup", "s-dup", "s-new"}
	h.newID = func(prefix string) string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first := h.Open()
	second := h.Open()
	defer h.CloseAll()

	if first.ID != "s-dup" || second.ID != "s-new" {
		t.Fatalf("expected s-dup then s-new, got %s and %s", first.ID, second.ID)
	}
	if got, ok := h.Get("s-dup"); !ok || got != first {
		t.Error("first session should not be replaced")
	}
	if h.Count() != 2 {
		t.Errorf("expected 2 sessions, got %d", h.Count())
	}
}
