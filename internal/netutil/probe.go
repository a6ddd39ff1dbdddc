// Package netutil holds the TCP probe backing the default readiness
// checker: a daemon that accepts connections on its control socket is
// considered ready.
package netutil

import (
	"context"
	"net"
	"time"
)

// defaultDialTimeout is the per-attempt bound for the readiness dial.
// One second is generous for a localhost connection; attempts made
// before the daemon listens fail immediately with connection refused,
// so this only guards against pathological half-open states.
const defaultDialTimeout = time.Second

// ProbeTCP reports whether addr is currently accepting TCP connections.
// The connection is closed immediately; nothing is read or written.
func ProbeTCP(ctx context.Context, addr string) bool {
	dialer := &net.Dialer{Timeout: defaultDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
