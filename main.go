package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"PrankTerminal/internal/server"
)

func main() {
	addr := flag.String("addr", ":8080", "address to listen on (e.g., 127.0.0.1:8080)")
	configPath := flag.String("config", "configs/terminal.json", "path to terminal tuning JSON")
	scripts := flag.String("scripts", "", "path to a dialogue script JSON (default: built-in)")
	instant := flag.Bool("instant", false, "skip typing delays")
	eraseRate := flag.Duration("erase-rate", 0, "override per-character erase delay")
	choiceDuration := flag.Duration("choice-duration", 0, "override time to type a choice line")
	otelEndpoint := flag.String("otel-endpoint", "", "OTLP/HTTP endpoint for traces (empty disables)")
	consoleMode := flag.Bool("console", false, "play in this terminal instead of serving HTTP")
	flag.Parse()

	cfg := server.DefaultAppConfig()
	cfg.ConfigPath = *configPath

	// Only flags given on the command line override file and env settings.
	var overrides server.Overrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			overrides.Addr = addr
		case "scripts":
			overrides.Scripts = scripts
		case "instant":
			overrides.Instant = instant
		case "erase-rate":
			overrides.EraseRate = eraseRate
		case "choice-duration":
			overrides.ChoiceDuration = choiceDuration
		case "otel-endpoint":
			overrides.OTelEndpoint = otelEndpoint
		}
	})

	resolved, err := server.ResolveConfig(cfg, overrides, nil)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *consoleMode {
		err = server.StartConsole(ctx, resolved)
	} else {
		err = server.StartApp(ctx, resolved)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}
