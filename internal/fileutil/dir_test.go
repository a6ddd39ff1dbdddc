package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDirCreatesNested(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("created path is not a directory")
	}

	// Existing directory is not an error.
	if err := EnsureDir(path); err != nil {
		t.Fatalf("EnsureDir on existing dir: %v", err)
	}
}

func TestEnsureDirForFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "run", "svc.pid")
	if err := EnsureDirForFile(file); err != nil {
		t.Fatalf("EnsureDirForFile: %v", err)
	}
	if err := os.WriteFile(file, []byte("1\n"), 0o644); err != nil {
		t.Fatalf("file not creatable after EnsureDirForFile: %v", err)
	}
}
