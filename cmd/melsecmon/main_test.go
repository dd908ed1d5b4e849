package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/melsec-monitor/internal/infrastructure/config"
	"github.com/nerrad567/melsec-monitor/internal/infrastructure/logging"
)

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("MELSECMON_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_ValidationFailure(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  path: ""
`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("MELSECMON_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("MELSECMON_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("MELSECMON_CONFIG", "/custom/config.yaml")
	if got := getConfigPath(); got != "/custom/config.yaml" {
		t.Errorf("getConfigPath() = %q, want /custom/config.yaml", got)
	}
}

func TestEngineOptions(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default() error = %v", err)
	}
	cfg.Mock.TCPPort = 6000
	cfg.Monitor.DefaultTarget = "W10"

	opts := engineOptions(cfg)
	if opts.DefaultTarget != "W10" || opts.BlockSize != 30 {
		t.Errorf("target/block = %q/%d", opts.DefaultTarget, opts.BlockSize)
	}
	if opts.PollInterval != 500*time.Millisecond || opts.SelectRetryDelay != 60*time.Millisecond {
		t.Errorf("intervals = %v/%v", opts.PollInterval, opts.SelectRetryDelay)
	}
	if opts.Server.IP != "0.0.0.0" || opts.Server.TCPPort != 6000 || opts.Server.UDPPort != 5001 || opts.Server.TimeoutMs != 5000 {
		t.Errorf("Server = %+v", opts.Server)
	}
}

func TestConnectHistory_Disabled(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default() error = %v", err)
	}

	history, closeFn := connectHistory(cfg, testLogger())
	defer closeFn()
	if history != nil {
		t.Errorf("history = %v, want nil when disabled", history)
	}
}

// TestRun_Headless starts the full stack against a live broker and shuts
// it down again. Requires RUN_INTEGRATION=1 and a broker on 127.0.0.1:1883.
func TestRun_Headless(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION") == "" {
		t.Skip("set RUN_INTEGRATION=1 to run against a live broker")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := `
database:
  path: "` + filepath.Join(tmpDir, "melsecmon.db") + `"
mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
    client_id: "melsecmon-test"
ui:
  mode: "headless"
logging:
  output: "stderr"
`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("MELSECMON_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func testLogger() *logging.Logger {
	return logging.Default()
}
