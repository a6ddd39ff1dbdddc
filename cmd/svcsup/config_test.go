package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
registry: /var/db/svcsup/runs.db
run_dir: /var/run/svcsup
ready_timeout: 4m
ready_interval: 1s
stop_timeout: 30s
host_prep: true

services:
  middleware:
    exec: /usr/sbin/middleware
    args: ["--foreground"]
    overlays:
      - /usr/local/lib/middleware-plugins
      - /opt/middleware-extra
    env:
      lc_all: C
      path: /sbin:/usr/sbin:/bin:/usr/bin
    pidfile: /var/run/middleware.pid
    ready_addr: 127.0.0.1:6000
  collector:
    exec: /usr/sbin/collector
    debug: true
`

func writeSampleConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "svcsup.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("test setup: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeSampleConfig(t)

	cfg, used, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if used != path {
		t.Errorf("config file used = %q, want %q", used, path)
	}
	if cfg.Registry != "/var/db/svcsup/runs.db" {
		t.Errorf("Registry = %q", cfg.Registry)
	}
	if cfg.ReadyTimeout != 4*time.Minute {
		t.Errorf("ReadyTimeout = %v", cfg.ReadyTimeout)
	}
	if cfg.StopTimeout != 30*time.Second {
		t.Errorf("StopTimeout = %v", cfg.StopTimeout)
	}
	if !cfg.HostPrep {
		t.Error("HostPrep = false")
	}
	if len(cfg.Services) != 2 {
		t.Fatalf("Services = %d entries, want 2", len(cfg.Services))
	}

	opts := cfg.supervisorOptions()
	if len(opts) != 6 {
		t.Errorf("supervisorOptions returned %d options, want 6", len(opts))
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("loadConfig returned nil for a missing explicit file")
	}
}

func TestServiceResolution(t *testing.T) {
	path := writeSampleConfig(t)
	cfg, _, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	svc, err := cfg.service("middleware", false)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if svc.ExecPath != "/usr/sbin/middleware" {
		t.Errorf("ExecPath = %q", svc.ExecPath)
	}
	if got := strings.Join(svc.OverlayDirs, ","); got != "/usr/local/lib/middleware-plugins,/opt/middleware-extra" {
		t.Errorf("OverlayDirs = %q", got)
	}
	if got := strings.Join(svc.Env, " "); got != "LC_ALL=C PATH=/sbin:/usr/sbin:/bin:/usr/bin" {
		t.Errorf("Env = %q", got)
	}
	if svc.Debug {
		t.Error("Debug = true without the flag")
	}

	// The --debug flag forces a debug launch.
	svc, err = cfg.service("middleware", true)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if !svc.Debug {
		t.Error("Debug = false with the flag")
	}

	// A config-level debug entry needs no flag.
	svc, err = cfg.service("collector", false)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if !svc.Debug {
		t.Error("collector Debug = false")
	}

	if _, err := cfg.service("unknown", false); err == nil {
		t.Fatal("service returned nil for an unknown name")
	}
}

func TestFlattenEnvExpandsAndSorts(t *testing.T) {
	t.Setenv("SVCSUP_TEST_HOME", "/home/svc")

	got := flattenEnv(map[string]string{
		"home": "$SVCSUP_TEST_HOME",
		"a":    "1",
	})
	want := []string{"A=1", "HOME=/home/svc"}
	if len(got) != len(want) {
		t.Fatalf("flattenEnv = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("flattenEnv = %v, want %v", got, want)
		}
	}

	if flattenEnv(nil) != nil {
		t.Error("flattenEnv(nil) != nil")
	}
}
