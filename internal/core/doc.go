// Package core implements the service supervisor: the run-state machine,
// the start and stop flows, and the reconciliation of durable run records
// against the live system.
package core
