// Package console plays the prank terminal in a local text terminal instead
// of a browser. Digits pick a choice, x presses the red dot, q quits.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"PrankTerminal/internal/dialogue"
	"PrankTerminal/internal/game"
	"PrankTerminal/internal/typewriter"
)

const (
	keyCtrlC = 3
	keyQuit  = 'q'
	keyDot   = 'x'
)

var dotColors = map[string]string{
	"red":    "\033[31m",
	"orange": "\033[33m",
	"green":  "\033[32m",
}

// Player renders one session to out and feeds key presses from in.
type Player struct {
	session *game.Session
	in      io.Reader
	out     io.Writer
	width   int
}

// New returns a player for session. in and out are usually the process's
// stdin and stdout.
func New(session *game.Session, in io.Reader, out io.Writer) *Player {
	return &Player{session: session, in: in, out: out, width: 80}
}

// Run opens a session on hub and plays it on stdin/stdout, switching the
// terminal to raw mode when stdin is one. in is closed on return.
func Run(ctx context.Context, hub *game.Hub, in, out *os.File) error {
	session := hub.Open()
	defer hub.Close(session.ID)
	// in is closed only after the terminal state is restored.
	defer in.Close()

	p := New(session, struct{ io.Reader }{in}, out)
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		defer term.Restore(fd, oldState)
	}
	if cols, _, err := term.GetSize(int(out.Fd())); err == nil && cols > 0 {
		p.width = cols
	}
	fmt.Fprint(out, "\033[?25l")
	defer fmt.Fprint(out, "\033[?25h\r\n")

	return p.Play(ctx)
}

// Play starts the dialogue and runs until the visitor quits, the script asks
// to close the window, or ctx is done. If in is an io.Closer it is closed on
// return so the key reader stops.
func (p *Player) Play(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		if c, ok := p.in.(io.Closer); ok {
			_ = c.Close()
		}
		p.session.Close()
		p.session.Wait()
	}()

	keys := make(chan byte)
	go readKeys(ctx, p.in, keys)

	p.session.Go(func() { p.report(p.session.Start(ctx)) })
	p.draw()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-p.session.Outbound():
			if msg.Type == game.MsgClose {
				p.draw()
				fmt.Fprint(p.out, "\r\n[process exited]\r\n")
				return nil
			}
			p.draw()
		case k, ok := <-keys:
			if !ok || k == keyQuit || k == keyCtrlC {
				return nil
			}
			p.handleKey(ctx, k)
		}
	}
}

func readKeys(ctx context.Context, in io.Reader, keys chan<- byte) {
	defer close(keys)
	r := bufio.NewReader(in)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		select {
		case keys <- b:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Player) handleKey(ctx context.Context, k byte) {
	switch {
	case k == keyDot:
		p.session.Go(func() { p.report(p.session.PressHeader(ctx, typewriter.DotClose)) })
	case k >= '1' && k <= '9':
		view, ok := lastChoices(p.session.Surface.Snapshot())
		if !ok {
			return
		}
		index := int(k - '1')
		p.session.Go(func() { p.report(p.session.Activate(ctx, view.ID, index)) })
	}
}

func (p *Player) report(err error) {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, dialogue.ErrTransitionInProgress) {
		return
	}
	if errors.Is(err, game.ErrNotArmed) || errors.Is(err, typewriter.ErrNoSuchControl) {
		return
	}
	log.Printf("[console] %v", err)
}

func lastChoices(views []typewriter.BlockView) (typewriter.BlockView, bool) {
	for i := len(views) - 1; i >= 0; i-- {
		if len(views[i].Controls) > 0 {
			return views[i], true
		}
	}
	return typewriter.BlockView{}, false
}

func (p *Player) draw() {
	var b strings.Builder
	b.WriteString("\033[2J\033[H")

	chrome := p.session.Surface.Chrome()
	for _, d := range chrome.Dots() {
		b.WriteString(dotColors[d.Color])
		if _, armed := chrome.Armed(d.Name); armed {
			b.WriteString("(●)")
		} else {
			b.WriteString(" ● ")
		}
		b.WriteString("\033[0m")
	}
	b.WriteString("\r\n")
	b.WriteString(strings.Repeat("─", p.width))
	b.WriteString("\r\n")

	views := p.session.Surface.Snapshot()
	for _, v := range views {
		b.WriteString("> ")
		b.WriteString(v.Text)
		b.WriteString("\r\n")
	}
	if view, ok := lastChoices(views); ok {
		labels := make([]string, 0, len(view.Controls))
		for i, c := range view.Controls {
			labels = append(labels, fmt.Sprintf("[%d] %s", i+1, c.Label))
		}
		b.WriteString("\r\n  ")
		b.WriteString(strings.Join(labels, "  "))
		b.WriteString("\r\n")
	}
	if _, armed := chrome.Armed(typewriter.DotClose); armed {
		b.WriteString("\r\n  [x] red dot\r\n")
	}
	_, _ = io.WriteString(p.out, b.String())
}
