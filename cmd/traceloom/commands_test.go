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
	body := fmt.Sprintf(`[paths]
results_dir = %q
data_dir = %q
log_dir = %q
`,
		filepath.Join(base, "results"),
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
	)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitCreatesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected target path in output: %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[batch]") {
		t.Fatal("sample config missing batch section")
	}

	// A second init without --overwrite must refuse.
	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error for existing config")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite init failed: %v", err)
	}
}

func TestConfigShowResolvedValues(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCLI(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, cfgPath) {
		t.Fatalf("expected config source in output: %q", out)
	}
	if !strings.Contains(out, "batch.max_workers") {
		t.Fatalf("expected settings table in output: %q", out)
	}
}

func TestInspectWithoutSessions(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCLI(t, "--config", cfgPath, "inspect", "--domain", "handwriting")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(out, "No sessions found") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestInspectRequiresTarget(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCLI(t, "--config", cfgPath, "inspect"); err == nil {
		t.Fatal("expected error without session id or domain")
	}
}

func TestSessionsEmptyRegistry(t *testing.T) {
	cfgPath := writeTestConfig(t)
	base := filepath.Dir(cfgPath)
	if err := os.MkdirAll(filepath.Join(base, "results"), 0o755); err != nil {
		t.Fatalf("mkdir results: %v", err)
	}

	out, err := runCLI(t, "--config", cfgPath, "sessions")
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if !strings.Contains(out, "No sessions recorded") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRunRejectsUnknownDomain(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCLI(t, "--config", cfgPath, "run", "astrology"); err == nil {
		t.Fatal("expected error for unknown domain")
	}
}
