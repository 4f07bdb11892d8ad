// SPDX-License-Identifier: MPL-2.0

package dockercli

import (
	"context"
	"fmt"
	"time"
)

// Retry runs op up to maxAttempts times with exponential backoff, retrying
// only while op returns an error whose Retryable flag is set. The executor
// itself never retries; this helper is the optional loop for callers that
// want one. It checks ctx.Err() between attempts so cancellation is honored
// immediately rather than after another spawn.
//
// On retry exhaustion the last error is returned.
func Retry(ctx context.Context, maxAttempts int, baseBackoff time.Duration, op func(attempt int) error) error {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("retry aborted: %w", err)
			}
			time.Sleep(baseBackoff * time.Duration(1<<(attempt-1)))
		}

		err := op(attempt)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
