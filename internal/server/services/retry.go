package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/tokenvault/internal/common"
	"github.com/sethvargo/go-retry"
)

// Store failures fall into two classes: domain outcomes (absent row,
// duplicate, corrupted ciphertext) that are terminal for the request, and
// infrastructure failures (connection refused, timeout) that are worth a
// bounded retry. Domain outcomes are sentinel errors; anything else coming
// out of a repository is treated as infrastructure. An attempt that ran into
// its own per-attempt deadline is infrastructure too; only the caller's
// context going away ends the operation early.

var terminalErrors = []error{
	common.ErrorNotFound,
	common.ErrorAlreadyExists,
	common.ErrorUnauthorized,
	common.ErrCorruptedRecord,
	common.ErrorValidation,
}

func isTerminal(err error) bool {
	for _, t := range terminalErrors {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// withRetry runs fn under a bounded per-attempt timeout, retrying
// infrastructure failures with fibonacci backoff (up to 3 retries).
// Terminal errors are returned immediately.
func withRetry(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := fn(attemptCtx)
		if err == nil || isTerminal(err) {
			return err
		}
		if ctx.Err() != nil {
			// the caller's context is gone; there is nothing to retry against
			return err
		}
		return retry.RetryableError(err)
	})
}
