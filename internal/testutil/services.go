// Package testutil builds isolated service graphs for tests.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackzampolin/amend/internal/config"
	"github.com/jackzampolin/amend/internal/home"
	"github.com/jackzampolin/amend/internal/providers"
	"github.com/jackzampolin/amend/internal/svcctx"
)

// NewServices wires services under a temporary home directory with call
// recording on. The registry holds only client, registered as "mock" and
// made the default; pass nil for an empty registry.
//
// Logs are discarded unless AMEND_TEST_LOGS is set.
func NewServices(t *testing.T, client providers.LLMClient) *svcctx.Services {
	t.Helper()

	dir := t.TempDir()
	h, err := home.New(dir)
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}

	cm, err := config.NewManager("", dir)
	if err != nil {
		t.Fatalf("config.NewManager() error = %v", err)
	}

	logger := Logger()
	cm.SetLogger(logger)
	services := svcctx.New(cm, h, logger)

	// Replace whatever the environment's API keys produced.
	services.Registry = providers.NewRegistry()
	services.Registry.SetLogger(logger)
	if client != nil {
		services.Registry.RegisterLLM("mock", client)
		services.Registry.SetDefault("mock")
	}
	return services
}

// Logger returns a logger that discards output unless AMEND_TEST_LOGS is set.
func Logger() *slog.Logger {
	if os.Getenv("AMEND_TEST_LOGS") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WaitForShutdown waits for a channel to receive a value or timeout.
func WaitForShutdown(done <-chan error, timeout time.Duration) error {
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for shutdown after %s", timeout)
	}
}
