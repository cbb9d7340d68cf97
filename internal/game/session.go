package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"

	"PrankTerminal/internal/dialogue"
	"PrankTerminal/internal/typewriter"
)

// ErrNotArmed is returned when a header control is pressed before any state
// wired it.
var ErrNotArmed = errors.New("game: header control not armed")

const outboundBuffer = 256

// Session is one visitor's terminal: a surface, a private copy of the
// dialogue registry, and the machine running it. Reloading the page opens a
// new session, which resets every visit counter.
type Session struct {
	ID      string
	Surface *typewriter.Surface
	Machine *dialogue.Machine

	out       chan OutboundMessage
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// OnMutation forwards surface changes to the session's outbound queue.
func (s *Session) OnMutation(m typewriter.Mutation) {
	s.Send(OutboundMessage{Type: MsgMutation, Payload: m})
}

func (s *Session) OnEnter(id dialogue.StateID, iteration int) {
	log.Printf("[story] session %s entering %s (visit %d)", s.ID, id, iteration+1)
}

func (s *Session) OnComplete(id dialogue.StateID, iterations int) {
	s.Send(OutboundMessage{Type: MsgState, Payload: StateUpdate{State: string(id), Iterations: iterations}})
}

// Send queues msg for the transport. It blocks while the queue is full and
// reports false once the session is closed.
func (s *Session) Send(msg OutboundMessage) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.out <- msg:
		return true
	case <-s.done:
		return false
	}
}

// Outbound returns the queue of messages for the transport.
func (s *Session) Outbound() <-chan OutboundMessage { return s.out }

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Hello describes the terminal as it currently looks, for a freshly attached
// client.
func (s *Session) Hello() OutboundMessage {
	chrome := s.Surface.Chrome()
	dots := chrome.Dots()
	header := make([]HeaderControl, 0, len(dots))
	for _, d := range dots {
		target, armed := chrome.Armed(d.Name)
		header = append(header, HeaderControl{Name: d.Name, Color: d.Color, Armed: armed, Target: target})
	}
	return OutboundMessage{Type: MsgHello, Payload: Hello{
		Session: s.ID,
		Header:  header,
		Blocks:  s.Surface.Snapshot(),
	}}
}

// Start enters the registry's start state.
func (s *Session) Start(ctx context.Context) error {
	return s.Enter(ctx, s.Machine.Registry().Start())
}

// Enter runs the named state on this session's surface.
func (s *Session) Enter(ctx context.Context, id dialogue.StateID) error {
	if _, err := s.Machine.Enter(ctx, id); err != nil {
		return fmt.Errorf("session %s: %w", s.ID, err)
	}
	return nil
}

// Activate handles a click on control index of the rich block blockID.
// Only controls that are currently live can be activated.
func (s *Session) Activate(ctx context.Context, blockID, index int) error {
	c, err := s.Surface.Control(blockID, index)
	if err != nil {
		return fmt.Errorf("session %s: %w", s.ID, err)
	}
	if c.Action == dialogue.ActionClose {
		log.Printf("[story] session %s asked to close", s.ID)
		s.Send(OutboundMessage{Type: MsgClose})
		return nil
	}
	return s.Enter(ctx, dialogue.StateID(c.Target))
}

// PressHeader handles a click on a header control such as the red dot.
func (s *Session) PressHeader(ctx context.Context, name string) error {
	target, ok := s.Surface.Chrome().Armed(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotArmed, name)
	}
	return s.Enter(ctx, dialogue.StateID(target))
}

// Go runs fn on its own goroutine, tracked so Wait can join it.
func (s *Session) Go(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// Wait blocks until every goroutine started with Go has returned.
func (s *Session) Wait() { s.wg.Wait() }

// Close ends the session. Pending sends are abandoned.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Hub tracks the live sessions and the definitions they are built from.
type Hub struct {
	Sessions map[string]*Session
	Mu       sync.Mutex

	registry *dialogue.Registry
	engine   *typewriter.Engine
	pacing   dialogue.Pacing
	newID    func(prefix string) string
}

// NewHub returns a hub whose sessions run fresh copies of registry.
func NewHub(registry *dialogue.Registry, engine *typewriter.Engine, pacing dialogue.Pacing) *Hub {
	return &Hub{
		Sessions: map[string]*Session{},
		registry: registry,
		engine:   engine,
		pacing:   pacing,
		newID:    RandId,
	}
}

// Open creates and registers a new session under an id no live session uses.
func (h *Hub) Open() *Session {
	s := &Session{
		Surface: typewriter.NewTerminal(),
		out:     make(chan OutboundMessage, outboundBuffer),
		done:    make(chan struct{}),
	}
	s.Machine = dialogue.NewMachine(h.registry.Fresh(), h.engine, s.Surface, h.pacing, s)
	s.Surface.Observe(s)

	h.Mu.Lock()
	for {
		s.ID = h.newID("s")
		if _, taken := h.Sessions[s.ID]; !taken {
			break
		}
	}
	h.Sessions[s.ID] = s
	h.Mu.Unlock()
	return s
}

// Get returns the session with the given id.
func (h *Hub) Get(id string) (*Session, bool) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	s, ok := h.Sessions[id]
	return s, ok
}

// Close ends and forgets a session.
func (h *Hub) Close(id string) {
	h.Mu.Lock()
	s, ok := h.Sessions[id]
	delete(h.Sessions, id)
	h.Mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseAll ends every session, e.g. on shutdown.
func (h *Hub) CloseAll() {
	h.Mu.Lock()
	sessions := h.Sessions
	h.Sessions = map[string]*Session{}
	h.Mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	return len(h.Sessions)
}

func RandId(prefix string) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 6)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return prefix + "-" + string(b)
}
