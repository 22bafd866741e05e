package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "herald.toml")
	content := fmt.Sprintf("[paths]\ndata_dir = %q\nlog_dir = %q\n",
		filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEnqueueThenStats(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, "--config", configPath,
		"enqueue", "AAPL", "📈 *AAPL*: big move", "--kind", "price_change", "--priority", "high")
	if err != nil {
		t.Fatalf("enqueue failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Enqueued alert") {
		t.Fatalf("expected enqueue confirmation, got %q", out)
	}
	if !strings.Contains(out, "Price Change") {
		t.Fatalf("expected display kind in output, got %q", out)
	}

	out, err = runCommand(t, "--config", configPath, "stats")
	if err != nil {
		t.Fatalf("stats failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Pending") {
		t.Fatalf("expected pending row in stats output, got %q", out)
	}
}

func TestEnqueueDuplicateIsReported(t *testing.T) {
	configPath := writeTestConfig(t)

	args := []string{"--config", configPath,
		"enqueue", "AAPL", "crossover", "--kind", "bullish_crossover"}
	if out, err := runCommand(t, args...); err != nil {
		t.Fatalf("first enqueue failed: %v\n%s", err, out)
	}
	out, err := runCommand(t, args...)
	if err != nil {
		t.Fatalf("duplicate enqueue errored: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Suppressed") {
		t.Fatalf("expected suppression notice, got %q", out)
	}
}

func TestEnqueueRejectsUnknownKind(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, err := runCommand(t, "--config", configPath,
		"enqueue", "AAPL", "hello", "--kind", "made_up"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestDeadLetterEmpty(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, "--config", configPath, "deadletter")
	if err != nil {
		t.Fatalf("deadletter failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "empty") {
		t.Fatalf("expected empty notice, got %q", out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v\n%s", err, out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[worker]") {
		t.Fatal("sample config missing worker section")
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
}
