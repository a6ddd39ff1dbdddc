package core

import (
	"log/slog"
	"sync/atomic"
)

// logger is the package-level logger, stored as an atomic pointer so
// SetLogger is safe concurrently with running operations. A nil value
// means no custom logger was set; Logger falls back to a cached default.
var logger atomic.Pointer[slog.Logger]

// defaultLogger caches the slog.Default()-derived logger so it is not
// rebuilt on every call. SetLogger(nil) clears the cache, letting the
// next Logger call pick up a later slog.SetDefault.
var defaultLogger atomic.Pointer[slog.Logger]

// Logger returns the current package-level logger.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := newDefaultLogger()
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

func newDefaultLogger() *slog.Logger {
	return slog.Default().With("component", "svcsup")
}

// SetLogger replaces the package-level logger. Passing nil resets to the
// default derived from slog.Default().
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	defaultLogger.Store(nil)
}
