package telemetry

import (
	"context"
	"testing"
)

func TestSetupNoopWithoutEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "  ", "off", "OFF"} {
		shutdown, err := Setup(context.Background(), "test", endpoint)
		if err != nil {
			t.Fatalf("Setup(%q) failed: %v", endpoint, err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := shutdown(ctx); err != nil {
			t.Errorf("noop shutdown for %q returned %v", endpoint, err)
		}
	}
}

func TestSetupWithEndpoint(t *testing.T) {
	// 192.0.2.0/24 is reserved for documentation; nothing is exported.
	shutdown, err := Setup(context.Background(), "test", "http://192.0.2.1:4318")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}
