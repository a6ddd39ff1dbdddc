// Package proc provides the low-level process primitives the supervisor is
// built on: spawning a daemon with captured stdout/stderr, terminating it
// with signal escalation, probing foreign pids, and polling readiness.
package proc
