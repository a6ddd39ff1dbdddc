package proc

import (
	"fmt"
	"os"
	"path/filepath"
)

// LogFiles holds the stdout/stderr capture files for a spawned daemon.
// The daemon inherits the file descriptors, so the files stay valid after
// the supervisor process exits.
type LogFiles struct {
	stdout *os.File
	stderr *os.File
}

// OpenLogFiles opens (appending, creating if needed) the capture files for
// a daemon named name under runDir: <name>-stdout.log and <name>-stderr.log.
// Append mode preserves output across restarts; rotation is out of scope.
func OpenLogFiles(runDir, name string) (LogFiles, error) {
	open := func(suffix string) (*os.File, error) {
		path := filepath.Join(runDir, name+suffix)
		return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}
	stdout, err := open("-stdout.log")
	if err != nil {
		return LogFiles{}, fmt.Errorf("open stdout log: %w", err)
	}
	stderr, err := open("-stderr.log")
	if err != nil {
		_ = stdout.Close()
		return LogFiles{}, fmt.Errorf("open stderr log: %w", err)
	}
	return LogFiles{stdout: stdout, stderr: stderr}, nil
}

// Close closes both capture files. Safe to call more than once.
func (l *LogFiles) Close() {
	if l.stdout != nil {
		_ = l.stdout.Close()
		l.stdout = nil
	}
	if l.stderr != nil {
		_ = l.stderr.Close()
		l.stderr = nil
	}
}
