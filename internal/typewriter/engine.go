// Package typewriter animates text into a terminal-like surface one
// character at a time and erases it again.
//
// Every animation is a cooperative loop: the calling goroutine sleeps on the
// engine's Clock between ticks and mutates exactly one block. Animations run
// to completion unless ctx is cancelled.
package typewriter

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"
)

var (
	// ErrConcurrentAnimation is returned when an animation targets a block
	// that another animation is still typing or erasing.
	ErrConcurrentAnimation = errors.New("typewriter: block already animating")
	// ErrDetachedBlock is returned when a block is no longer on its surface.
	ErrDetachedBlock = errors.New("typewriter: block not on surface")
	// ErrNoSuchControl is returned when an activation names a control that
	// does not exist or is not live.
	ErrNoSuchControl = errors.New("typewriter: no such control")
	// ErrMarkup is returned for fragments that cannot be rendered.
	ErrMarkup = errors.New("typewriter: invalid markup")
)

// DefaultEraseRate is the per-character delay used when clearing a surface.
const DefaultEraseRate = 25 * time.Millisecond

// Engine runs reveal and erase animations.
type Engine struct {
	clock Clock
}

// NewEngine returns an engine paced by clock. A nil clock uses wall time.
func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = RealClock()
	}
	return &Engine{clock: clock}
}

// RevealInto types text into b so the whole reveal takes roughly total.
// The per-character delay is total divided by the number of characters.
func (e *Engine) RevealInto(ctx context.Context, text string, b *Block, total time.Duration) error {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return e.RevealAtRate(ctx, text, b, 0)
	}
	return e.RevealAtRate(ctx, text, b, total/time.Duration(n))
}

// RevealAtRate types text into b, sleeping perChar before each character.
// Tick i shows the first i characters; empty text blanks b without a tick.
func (e *Engine) RevealAtRate(ctx context.Context, text string, b *Block, perChar time.Duration) error {
	if err := b.acquire(); err != nil {
		return err
	}
	defer b.release()

	runes := []rune(text)
	if len(runes) == 0 && b.Text() != "" {
		b.setText("")
	}
	for i := 1; i <= len(runes); i++ {
		if err := e.clock.Sleep(ctx, perChar); err != nil {
			return err
		}
		b.setText(string(runes[:i]))
	}
	return nil
}

// EraseFrom normalizes b's text and then removes one trailing character per
// tick until the block is empty. It returns b for chaining.
func (e *Engine) EraseFrom(ctx context.Context, b *Block, perChar time.Duration) (*Block, error) {
	if err := b.acquire(); err != nil {
		return b, err
	}
	defer b.release()

	current := b.Text()
	normalized := Normalize(current)
	if normalized != current {
		b.setText(normalized)
	}
	runes := []rune(normalized)
	for len(runes) > 0 {
		if err := e.clock.Sleep(ctx, perChar); err != nil {
			return b, err
		}
		runes = runes[:len(runes)-1]
		b.setText(string(runes))
	}
	return b, nil
}

// AppendLine adds a new block to s and types text into it.
func (e *Engine) AppendLine(ctx context.Context, text string, s *Surface, total time.Duration) (*Block, error) {
	b := s.appendBlock()
	if err := e.RevealInto(ctx, text, b, total); err != nil {
		return b, err
	}
	return b, nil
}

// AppendRichLine types the plain-text rendering of markup into a throwaway
// block, then swaps that block for one carrying the fragment's controls.
// Controls are therefore only live once AppendRichLine returns. The returned
// block is the throwaway one, matching what AppendLine returns.
func (e *Engine) AppendRichLine(ctx context.Context, markup string, s *Surface, total time.Duration) (*Block, error) {
	frag, err := ParseFragment(markup)
	if err != nil {
		return nil, err
	}
	b, err := e.AppendLine(ctx, frag.Text, s, total)
	if err != nil {
		return b, err
	}
	if _, err := s.replace(b, frag); err != nil {
		return b, err
	}
	return b, nil
}

// Cleanup erases and removes every block on s, most recently added first.
// Each erase finishes before the next one starts.
func (e *Engine) Cleanup(ctx context.Context, s *Surface, perChar time.Duration) error {
	blocks := s.Blocks()
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if _, err := e.EraseFrom(ctx, b, perChar); err != nil {
			return err
		}
		if err := s.Remove(b); err != nil {
			return err
		}
	}
	return nil
}

// Pause waits d without touching any surface.
func (e *Engine) Pause(ctx context.Context, d time.Duration) error {
	return e.clock.Sleep(ctx, d)
}
