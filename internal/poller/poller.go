// Package poller implements the poll-until-terminal idiom shared by explorer
// verification and payment confirmation: fixed interval, fixed attempt budget,
// three-way terminal classification.
package poller

import (
	"context"
	"fmt"
	"time"
)

type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Status is one poll observation: an outcome plus a human-readable message.
type Status struct {
	Outcome Outcome
	Message string
}

// PollFunc performs one observation. Returning an error counts as a failed
// terminal outcome.
type PollFunc func(ctx context.Context) (Status, error)

// Poll invokes fn every interval until it reports a terminal outcome or the
// attempt budget is exhausted. Exhaustion while still pending yields a failed
// status with a timeout message; polling never runs unbounded.
func Poll(ctx context.Context, interval time.Duration, maxAttempts int, fn PollFunc) Status {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, err := fn(ctx)
		if err != nil {
			return Status{Outcome: OutcomeFailed, Message: err.Error()}
		}
		if status.Outcome != OutcomePending {
			return status
		}
		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return Status{Outcome: OutcomeFailed, Message: ctx.Err().Error()}
		case <-time.After(interval):
		}
	}

	return Status{
		Outcome: OutcomeFailed,
		Message: fmt.Sprintf("timed out after %d attempts", maxAttempts),
	}
}
