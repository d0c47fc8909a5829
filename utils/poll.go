package utils

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout reports that the polled condition did not hold before the
// deadline. Callers distinguish it from a failed check to decide escalation.
var ErrTimeout = errors.New("poll timeout")

// PollUntil calls check at the given interval until it returns (true, nil),
// returns a non-nil error, or the timeout/context expires. The deadline is
// reported as ErrTimeout.
func PollUntil(ctx context.Context, timeout, interval time.Duration, check func() (done bool, err error)) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
