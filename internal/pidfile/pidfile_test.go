package pidfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteThenRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := New(filepath.Join(t.TempDir(), "svc.pid"))

	if err := f.Write(ctx, 4321); err != nil {
		t.Fatalf("Write: %v", err)
	}

	pid, err := f.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if pid != 4321 {
		t.Fatalf("Read = %d, want 4321", pid)
	}

	// The on-disk format is the pid plus a trailing newline.
	raw, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(raw) != "4321\n" {
		t.Fatalf("file content = %q, want %q", raw, "4321\n")
	}
}

func TestWriteRejectsNonPositivePid(t *testing.T) {
	t.Parallel()

	f := New(filepath.Join(t.TempDir(), "svc.pid"))
	if err := f.Write(context.Background(), 0); err == nil {
		t.Fatal("expected error for pid 0")
	}
	if err := f.Write(context.Background(), -5); err == nil {
		t.Fatal("expected error for negative pid")
	}
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	f := New(filepath.Join(t.TempDir(), "svc.pid"))
	_, err := f.Read(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read error = %v, want %v", err, ErrNotFound)
	}
}

func TestReadMalformed(t *testing.T) {
	t.Parallel()

	type testCase struct {
		content string
	}

	tests := map[string]testCase{
		"garbage":      {content: "not-a-pid\n"},
		"empty":        {content: ""},
		"negative pid": {content: "-12\n"},
		"zero pid":     {content: "0\n"},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "svc.pid")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("test setup: %v", err)
			}

			_, err := New(path).Read(context.Background())
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("Read error = %v, want %v", err, ErrMalformed)
			}
		})
	}
}

func TestReadTrimsWhitespace(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "svc.pid")
	if err := os.WriteFile(path, []byte("  987 \n"), 0o644); err != nil {
		t.Fatalf("test setup: %v", err)
	}

	pid, err := New(path).Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if pid != 987 {
		t.Fatalf("Read = %d, want 987", pid)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := New(filepath.Join(t.TempDir(), "svc.pid"))

	if err := f.Write(ctx, 77); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Remove(ctx); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := f.Read(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read after Remove = %v, want %v", err, ErrNotFound)
	}

	// Removing an already-absent file is a no-op.
	if err := f.Remove(ctx); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
}
