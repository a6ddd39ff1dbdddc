package proc

import (
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"
)

func TestSpawnConfigValidate(t *testing.T) {
	t.Parallel()

	type testCase struct {
		cfg     SpawnConfig
		wantErr error
	}

	tests := map[string]testCase{
		"missing name": {
			cfg:     SpawnConfig{Path: "/bin/true", RunDir: "/tmp"},
			wantErr: ErrEmptyName,
		},
		"missing path": {
			cfg:     SpawnConfig{Name: "svc", RunDir: "/tmp"},
			wantErr: ErrEmptyPath,
		},
		"missing run dir": {
			cfg:     SpawnConfig{Name: "svc", Path: "/bin/true"},
			wantErr: ErrEmptyRunDir,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Spawn(tc.cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Spawn error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSpawnAndStop(t *testing.T) {
	t.Parallel()

	h := spawnSleep(t)
	defer h.Close()

	pid := h.Pid()
	if pid <= 0 {
		t.Fatalf("Pid() = %d, want positive", pid)
	}
	if !Alive(pid) {
		t.Fatalf("pid %d should be alive after spawn", pid)
	}

	if err := h.Stop(5 * time.Second); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if Alive(pid) {
		t.Fatalf("pid %d still alive after Stop", pid)
	}
}

func TestStopUnboundedWaitsForExit(t *testing.T) {
	t.Parallel()

	h := spawnSleep(t)
	defer h.Close()
	pid := h.Pid()

	// timeout <= 0 means wait forever; sleep dies promptly on SIGTERM,
	// so this returns without escalation.
	if err := h.Stop(0); err != nil {
		t.Fatalf("Stop(0): %v", err)
	}
	if Alive(pid) {
		t.Fatalf("pid %d still alive after unbounded Stop", pid)
	}
}

func TestStopClosesExitedChannel(t *testing.T) {
	t.Parallel()

	h := spawnSleep(t)
	defer h.Close()

	if err := h.Stop(5 * time.Second); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case <-h.Exited():
	case <-time.After(time.Second):
		t.Fatal("Exited channel not closed after Stop")
	}
}

func TestExpectedSignalExit(t *testing.T) {
	t.Parallel()

	type testCase struct {
		err     error
		signal  syscall.Signal
		wantErr bool
	}

	tests := map[string]testCase{
		"nil error is success": {
			wantErr: false,
		},
		"SIGTERM exit is expected": {
			signal:  syscall.SIGTERM,
			wantErr: false,
		},
		"SIGKILL exit is expected": {
			signal:  syscall.SIGKILL,
			wantErr: false,
		},
		"SIGINT exit is unexpected": {
			signal:  syscall.SIGINT,
			wantErr: true,
		},
		"plain error is unexpected": {
			err:     errors.New("exec format error"),
			wantErr: true,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			inputErr := tc.err
			if inputErr == nil && tc.signal != 0 {
				inputErr = makeSignalExitError(t, tc.signal)
			}

			got := expectedSignalExit(inputErr, "svc")
			if tc.wantErr && got == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && got != nil {
				t.Fatalf("expected nil, got %v", got)
			}
		})
	}
}

func TestDrainDone(t *testing.T) {
	t.Parallel()

	t.Run("delivers value", func(t *testing.T) {
		t.Parallel()
		done := make(chan error, 1)
		want := errors.New("crashed")
		done <- want

		ok, err := drainDone(done, time.Second)
		if !ok {
			t.Fatal("expected ok=true when channel has a value")
		}
		if !errors.Is(err, want) {
			t.Fatalf("err = %v, want %v", err, want)
		}
	})

	t.Run("times out on empty channel", func(t *testing.T) {
		t.Parallel()
		done := make(chan error)

		ok, err := drainDone(done, 10*time.Millisecond)
		if ok {
			t.Fatal("expected ok=false on timeout")
		}
		if err != nil {
			t.Fatalf("expected nil error on timeout, got %v", err)
		}
	})
}

// spawnSleep spawns a long sleep as a stand-in daemon and fails the test
// if the launch does not succeed.
func spawnSleep(tb testing.TB) *Handle {
	tb.Helper()

	h, err := Spawn(SpawnConfig{
		Name:   "sleeper",
		Path:   "/bin/sleep",
		Args:   []string{"300"},
		RunDir: tb.TempDir(),
	})
	if err != nil {
		tb.Fatalf("test setup: spawn sleep: %v", err)
	}
	tb.Cleanup(func() {
		_ = h.Stop(time.Second)
		h.Close()
	})
	return h
}

// makeSignalExitError produces an authentic *exec.ExitError for the given
// signal by signalling a real process.
func makeSignalExitError(tb testing.TB, sig syscall.Signal) *exec.ExitError {
	tb.Helper()

	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		tb.Fatalf("test setup: start sleep: %v", err)
	}
	if err := cmd.Process.Signal(sig); err != nil {
		_ = cmd.Process.Kill()
		tb.Fatalf("test setup: signal process with %v: %v", sig, err)
	}

	err := cmd.Wait()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		tb.Fatalf("test setup: expected ExitError, got %v", err)
	}
	return exitErr
}
