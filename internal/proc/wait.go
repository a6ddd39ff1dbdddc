package proc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// Sentinel errors returned by WaitReady. Callers match them with
// errors.Is through wrapped chains.
var (
	// ErrIntervalNotPositive indicates a non-positive poll interval.
	ErrIntervalNotPositive = errors.New("interval must be positive")

	// ErrTimeoutNotPositive indicates a non-positive timeout.
	ErrTimeoutNotPositive = errors.New("timeout must be positive")

	// ErrExitedEarly indicates the daemon died before reporting ready.
	ErrExitedEarly = errors.New("process exited before becoming ready")
)

// ReadyFunc is one readiness probe attempt. The context is cancelled when
// the polling loop times out or the caller cancels, so probes that do I/O
// should honor it. attempt is 1-based. Return true when the daemon is
// ready, false to keep polling, or a non-nil error to abort.
type ReadyFunc func(ctx context.Context, attempt int) (ready bool, err error)

// WaitReadyConfig configures a readiness wait.
type WaitReadyConfig struct {
	Interval time.Duration   // poll interval
	Timeout  time.Duration   // overall deadline
	Name     string          // service name for messages
	Logger   *slog.Logger    // optional, defaults to slog.Default()
	Exited   <-chan struct{} // if non-nil, abort as soon as it is closed
}

// WaitReady polls check until it reports ready, returns an error, the
// daemon exits, or the timeout elapses. The wait is a blocking poll; it
// suspends the caller for up to cfg.Timeout.
func WaitReady(ctx context.Context, cfg WaitReadyConfig, check ReadyFunc) error {
	if cfg.Name == "" {
		return errors.New("wait ready: name must not be empty")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrIntervalNotPositive)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrTimeoutNotPositive)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	// attempt needs no synchronization: PollUntilContextTimeout invokes
	// the condition sequentially, never concurrently with itself.
	attempt := 0
	if err := wait.PollUntilContextTimeout(ctx, cfg.Interval, cfg.Timeout, true,
		func(pollCtx context.Context) (bool, error) {
			// A daemon that died during startup will never become ready;
			// bail out instead of burning the whole timeout.
			if cfg.Exited != nil {
				select {
				case <-cfg.Exited:
					return false, fmt.Errorf("%s: %w", cfg.Name, ErrExitedEarly)
				default:
				}
			}

			attempt++
			ready, err := check(pollCtx, attempt)
			if err != nil {
				return false, err
			}
			if ready {
				log.Debug("readiness confirmed", "service", cfg.Name, "attempt", attempt)
			}
			return ready, nil
		}); err != nil {
		return fmt.Errorf("wait for %s readiness: %w", cfg.Name, err)
	}
	return nil
}
