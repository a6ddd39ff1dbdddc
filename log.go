package svcsup

import (
	"log/slog"

	"github.com/giantswarm/svcsup/internal/core"
)

// SetLogger replaces the package-level logger used by svcsup.
// This allows applications to integrate svcsup logging with their own
// logging infrastructure. The provided logger should already have any
// desired attributes; svcsup will not add additional attributes.
//
// If l is nil, the logger resets to the default: slog.Default() with
// "component" attribute, re-derived on the next use and then cached.
// Call SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// Thread safety: SetLogger is safe to call concurrently with running
// operations. The logger is stored as an atomic pointer, so loads and
// stores are data-race-free; a concurrent operation may briefly keep
// using the previous logger. For a strict happens-before guarantee, call
// SetLogger before constructing a Supervisor.
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
