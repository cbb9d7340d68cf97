package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"PrankTerminal/internal/typewriter"
)

// ErrTransitionInProgress is returned when Enter is called while the same
// machine is still running another state's script.
var ErrTransitionInProgress = errors.New("dialogue: transition in progress")

// Effects is notified around state transitions.
type Effects interface {
	// OnEnter is called once the state is resolved, before cleanup.
	OnEnter(id StateID, iteration int)
	// OnComplete is called after the script ran and the counter moved.
	OnComplete(id StateID, iterations int)
}

// NoOpEffects is a default implementation that does nothing.
type NoOpEffects struct{}

func (NoOpEffects) OnEnter(id StateID, iteration int)     {}
func (NoOpEffects) OnComplete(id StateID, iterations int) {}

// Pacing holds the animation timings that are not part of a script.
type Pacing struct {
	EraseRate      time.Duration // Per character, while clearing the surface
	ChoiceDuration time.Duration // Typing time of a rendered choice line
}

// DefaultPacing returns the standard timings.
func DefaultPacing() Pacing {
	return Pacing{
		EraseRate:      typewriter.DefaultEraseRate,
		ChoiceDuration: 500 * time.Millisecond,
	}
}

// Machine runs dialogue states against one terminal surface.
type Machine struct {
	registry *Registry
	engine   *typewriter.Engine
	surface  *typewriter.Surface
	pacing   Pacing
	effects  Effects
	tracer   trace.Tracer
	busy     atomic.Bool
}

// NewMachine binds a registry to the surface it renders into.
func NewMachine(registry *Registry, engine *typewriter.Engine, surface *typewriter.Surface, pacing Pacing, effects Effects) *Machine {
	if effects == nil {
		effects = NoOpEffects{}
	}
	return &Machine{
		registry: registry,
		engine:   engine,
		surface:  surface,
		pacing:   pacing,
		effects:  effects,
		tracer:   otel.Tracer("PrankTerminal/internal/dialogue"),
	}
}

// Registry returns the registry the machine runs.
func (m *Machine) Registry() *Registry { return m.registry }

// Surface returns the surface the machine renders into.
func (m *Machine) Surface() *typewriter.Surface { return m.surface }

// Busy reports whether a transition is running.
func (m *Machine) Busy() bool { return m.busy.Load() }

// Enter runs the state registered under id: it clears the surface, says the
// script's lines, renders its choices or arms its trigger, and finally bumps
// the state's visit counter. The counter only moves when the whole script
// completed.
func (m *Machine) Enter(ctx context.Context, id StateID) (*State, error) {
	st, err := m.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if !m.busy.CompareAndSwap(false, true) {
		return st, fmt.Errorf("%w: cannot enter %s", ErrTransitionInProgress, id)
	}
	defer m.busy.Store(false)

	iteration := m.registry.Iterations(id)
	ctx, span := m.tracer.Start(ctx, "dialogue.enter", trace.WithAttributes(
		attribute.String("dialogue.state", string(id)),
		attribute.Int("dialogue.iteration", iteration),
	))
	defer span.End()

	m.effects.OnEnter(id, iteration)
	if err := m.run(ctx, st.ScriptFor(iteration)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return st, fmt.Errorf("enter %s: %w", id, err)
	}
	m.effects.OnComplete(id, m.registry.complete(st))
	return st, nil
}

func (m *Machine) run(ctx context.Context, script Script) error {
	if err := m.engine.Cleanup(ctx, m.surface, m.pacing.EraseRate); err != nil {
		return err
	}

	for _, line := range script.Lines {
		var err error
		if line.Rich {
			_, err = m.engine.AppendRichLine(ctx, line.Text, m.surface, line.Duration())
		} else {
			_, err = m.engine.AppendLine(ctx, line.Text, m.surface, line.Duration())
		}
		if err != nil {
			return err
		}
		if pause := line.PauseAfter(); pause > 0 {
			if err := m.engine.Pause(ctx, pause); err != nil {
				return err
			}
		}
	}

	if len(script.Choices) > 0 {
		if _, err := m.engine.AppendRichLine(ctx, RenderChoices(script.Choices), m.surface, m.pacing.ChoiceDuration); err != nil {
			return err
		}
	}
	if script.Trigger != nil {
		if err := m.surface.Arm(script.Trigger.Control, string(script.Trigger.Target)); err != nil {
			return err
		}
	}
	return nil
}

// RenderChoices renders choices as a markup fragment of buttons separated by
// " | ". Targets and actions travel as data attributes.
func RenderChoices(choices []Choice) string {
	var sb strings.Builder
	sb.WriteString("<p>")
	for i, c := range choices {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString("<button")
		if c.Target != "" {
			fmt.Fprintf(&sb, ` data-target="%s"`, html.EscapeString(string(c.Target)))
		}
		if c.Action != "" {
			fmt.Fprintf(&sb, ` data-action="%s"`, html.EscapeString(c.Action))
		}
		sb.WriteString(">")
		sb.WriteString(html.EscapeString(c.Label))
		sb.WriteString("</button>")
	}
	sb.WriteString("</p>")
	return sb.String()
}
