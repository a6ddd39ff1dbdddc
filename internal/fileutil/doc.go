// Package fileutil provides small filesystem helpers used when preparing
// the supervisor's run directory and the parent directories of pid files
// and the run-record database.
package fileutil
