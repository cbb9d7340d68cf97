package typewriter

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// MutationKind names a visible change to a surface.
type MutationKind string

const (
	// MutationAppend adds an empty block at the end of the surface.
	MutationAppend MutationKind = "append"
	// MutationUpdate changes the visible text of a block.
	MutationUpdate MutationKind = "update"
	// MutationReplace swaps a typed block for its rich counterpart.
	MutationReplace MutationKind = "replace"
	// MutationRemove drops a block from the surface.
	MutationRemove MutationKind = "remove"
	// MutationArm wires a header control to a dialogue state.
	MutationArm MutationKind = "arm"
)

// Control is an activation target embedded in a rich block or in the
// terminal header.
type Control struct {
	Label  string `json:"label"`
	Target string `json:"target,omitempty"` // state entered on activation
	Action string `json:"action,omitempty"` // host action, e.g. "close"
}

// Mutation describes one observable surface change, in the order it happened.
type Mutation struct {
	Kind     MutationKind `json:"kind"`
	Block    int          `json:"block,omitempty"`
	Prev     int          `json:"prev,omitempty"` // replaced block (replace only)
	Text     string       `json:"text,omitempty"`
	Controls []Control    `json:"controls,omitempty"`
	Header   string       `json:"header,omitempty"` // header control name (arm only)
}

// Observer receives surface mutations. Calls are made synchronously from the
// goroutine performing the animation, so implementations must not block for
// long and must not call back into the surface's mutating methods.
type Observer interface {
	OnMutation(m Mutation)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(m Mutation)

func (f ObserverFunc) OnMutation(m Mutation) {
	if f == nil {
		return
	}
	f(m)
}

// Block is one line of terminal output.
type Block struct {
	id       int
	mu       sync.Mutex
	text     string
	controls []Control
	owner    *Surface
	busy     atomic.Bool
}

// ID returns the block's surface-unique identifier.
func (b *Block) ID() int { return b.id }

// Text returns the currently visible text.
func (b *Block) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Controls returns the live controls of a rich block. Plain blocks and blocks
// still being typed have none.
func (b *Block) Controls() []Control {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Control(nil), b.controls...)
}

// Attached reports whether the block is still part of a surface.
func (b *Block) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owner != nil
}

// Busy reports whether an animation currently targets the block.
func (b *Block) Busy() bool { return b.busy.Load() }

func (b *Block) acquire() error {
	if !b.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: block %d", ErrConcurrentAnimation, b.id)
	}
	return nil
}

func (b *Block) release() { b.busy.Store(false) }

func (b *Block) setText(text string) {
	b.mu.Lock()
	b.text = text
	owner := b.owner
	b.mu.Unlock()
	if owner != nil {
		owner.emit(Mutation{Kind: MutationUpdate, Block: b.id, Text: text})
	}
}

// BlockView is a point-in-time copy of a block.
type BlockView struct {
	ID       int       `json:"id"`
	Text     string    `json:"text"`
	Controls []Control `json:"controls,omitempty"`
}

// Surface is the ordered list of blocks visible in a terminal body, plus the
// header chrome around it.
type Surface struct {
	mu       sync.Mutex
	blocks   []*Block
	nextID   int
	chrome   *Chrome
	observer Observer
}

// NewSurface returns an empty surface with the given header chrome. A nil
// chrome yields a surface without header controls.
func NewSurface(chrome *Chrome) *Surface {
	if chrome == nil {
		chrome = &Chrome{}
	}
	return &Surface{chrome: chrome, nextID: 1}
}

// NewTerminal returns an empty surface dressed with the standard window
// controls (close, minimize, maximize dots).
func NewTerminal() *Surface {
	return NewSurface(DefaultChrome())
}

// Observe sets the observer notified of every subsequent mutation.
func (s *Surface) Observe(obs Observer) {
	s.mu.Lock()
	s.observer = obs
	s.mu.Unlock()
}

func (s *Surface) emit(m Mutation) {
	s.mu.Lock()
	obs := s.observer
	s.mu.Unlock()
	if obs != nil {
		obs.OnMutation(m)
	}
}

// Chrome returns the surface's header controls.
func (s *Surface) Chrome() *Chrome { return s.chrome }

// Len returns the number of blocks on the surface.
func (s *Surface) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocks)
}

// Blocks returns the blocks in display order.
func (s *Surface) Blocks() []*Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Block(nil), s.blocks...)
}

// Snapshot copies the visible state of every block in display order.
func (s *Surface) Snapshot() []BlockView {
	blocks := s.Blocks()
	views := make([]BlockView, 0, len(blocks))
	for _, b := range blocks {
		views = append(views, BlockView{ID: b.ID(), Text: b.Text(), Controls: b.Controls()})
	}
	return views
}

// Block returns the attached block with the given id.
func (s *Surface) Block(id int) (*Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.blocks {
		if b.id == id {
			return b, true
		}
	}
	return nil, false
}

// Control resolves a live control by block id and position.
func (s *Surface) Control(blockID, index int) (Control, error) {
	b, ok := s.Block(blockID)
	if !ok {
		return Control{}, fmt.Errorf("%w: block %d", ErrNoSuchControl, blockID)
	}
	controls := b.Controls()
	if index < 0 || index >= len(controls) {
		return Control{}, fmt.Errorf("%w: block %d control %d", ErrNoSuchControl, blockID, index)
	}
	return controls[index], nil
}

func (s *Surface) appendBlock() *Block {
	s.mu.Lock()
	b := &Block{id: s.nextID, owner: s}
	s.nextID++
	s.blocks = append(s.blocks, b)
	s.mu.Unlock()
	s.emit(Mutation{Kind: MutationAppend, Block: b.id})
	return b
}

// replace swaps old for a new rich block at the same position. old is
// detached and keeps its final text.
func (s *Surface) replace(old *Block, frag Fragment) (*Block, error) {
	s.mu.Lock()
	idx := s.indexLocked(old)
	if idx < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: block %d", ErrDetachedBlock, old.id)
	}
	rich := &Block{
		id:       s.nextID,
		text:     frag.Text,
		controls: append([]Control(nil), frag.Controls...),
		owner:    s,
	}
	s.nextID++
	s.blocks[idx] = rich
	s.mu.Unlock()

	old.mu.Lock()
	old.owner = nil
	old.mu.Unlock()

	s.emit(Mutation{
		Kind:     MutationReplace,
		Block:    rich.id,
		Prev:     old.id,
		Text:     rich.text,
		Controls: rich.Controls(),
	})
	return rich, nil
}

// Remove detaches b from the surface.
func (s *Surface) Remove(b *Block) error {
	s.mu.Lock()
	idx := s.indexLocked(b)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: block %d", ErrDetachedBlock, b.id)
	}
	s.blocks = append(s.blocks[:idx], s.blocks[idx+1:]...)
	s.mu.Unlock()

	b.mu.Lock()
	b.owner = nil
	b.mu.Unlock()

	s.emit(Mutation{Kind: MutationRemove, Block: b.id})
	return nil
}

func (s *Surface) indexLocked(b *Block) int {
	for i, candidate := range s.blocks {
		if candidate == b {
			return i
		}
	}
	return -1
}

// Arm wires the named header control so that activating it enters target.
// Arming an already armed control rebinds it.
func (s *Surface) Arm(control, target string) error {
	if err := s.chrome.arm(control, target); err != nil {
		return err
	}
	s.emit(Mutation{
		Kind:     MutationArm,
		Header:   control,
		Controls: []Control{{Label: control, Target: target}},
	})
	return nil
}
