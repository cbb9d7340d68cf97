package server

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"PrankTerminal/internal/console"
	"PrankTerminal/internal/dialogue"
	. "PrankTerminal/internal/game"
	"PrankTerminal/internal/telemetry"
	"PrankTerminal/internal/typewriter"
)

func loadRegistry(cfg AppConfig) (*dialogue.Registry, error) {
	if cfg.ScriptsPath == "" {
		return dialogue.DefaultRegistry()
	}
	return dialogue.LoadRegistry(cfg.ScriptsPath)
}

func newEngine(cfg AppConfig) *typewriter.Engine {
	if cfg.Instant {
		return typewriter.NewEngine(typewriter.InstantClock())
	}
	return typewriter.NewEngine(typewriter.RealClock())
}

func newHub(cfg AppConfig) (*Hub, error) {
	registry, err := loadRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("dialogue: %w", err)
	}
	log.Printf("dialogue registry initialized with %d states (start %s)", len(registry.IDs()), registry.Start())
	if unreachable := registry.Unreachable(); len(unreachable) > 0 {
		log.Printf("dialogue states unreachable from %s: %v", registry.Start(), unreachable)
	}
	return NewHub(registry, newEngine(cfg), cfg.Pacing), nil
}

func setupTracing(ctx context.Context, cfg AppConfig) func() {
	shutdown, err := telemetry.Setup(ctx, telemetry.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		log.Printf("tracing: %v (continuing without)", err)
	}
	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}
}

// StartApp serves the terminal over HTTP until ctx is cancelled.
func StartApp(ctx context.Context, cfg AppConfig) error {
	defer setupTracing(ctx, cfg)()

	hub, err := newHub(cfg)
	if err != nil {
		return err
	}

	// Periodic session report (every 60 seconds)
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Printf("%d live session(s)", hub.Count())
			}
		}
	}()

	log.Printf("starting web server on %s (erase %v/char, choices %v, instant %t)\n",
		cfg.Addr, cfg.Pacing.EraseRate, cfg.Pacing.ChoiceDuration, cfg.Instant)
	return startServer(ctx, hub, cfg.Addr)
}

// StartConsole plays a single session on the process's terminal.
func StartConsole(ctx context.Context, cfg AppConfig) error {
	defer setupTracing(ctx, cfg)()

	hub, err := newHub(cfg)
	if err != nil {
		return err
	}
	return console.Run(ctx, hub, os.Stdin, os.Stdout)
}
