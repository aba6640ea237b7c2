package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollTerminatesAfterMaxAttempts(t *testing.T) {
	attempts := 0
	status := Poll(context.Background(), time.Millisecond, 20, func(ctx context.Context) (Status, error) {
		attempts++
		return Status{Outcome: OutcomePending, Message: "still pending"}, nil
	})

	assert.Equal(t, 20, attempts)
	assert.Equal(t, OutcomeFailed, status.Outcome)
	assert.Contains(t, status.Message, "timed out after 20 attempts")
}

func TestPollStopsOnSuccess(t *testing.T) {
	attempts := 0
	status := Poll(context.Background(), time.Millisecond, 10, func(ctx context.Context) (Status, error) {
		attempts++
		if attempts < 3 {
			return Status{Outcome: OutcomePending}, nil
		}
		return Status{Outcome: OutcomeSuccess, Message: "verified"}, nil
	})

	assert.Equal(t, 3, attempts)
	assert.Equal(t, OutcomeSuccess, status.Outcome)
	assert.Equal(t, "verified", status.Message)
}

func TestPollStopsOnFailure(t *testing.T) {
	attempts := 0
	status := Poll(context.Background(), time.Millisecond, 10, func(ctx context.Context) (Status, error) {
		attempts++
		return Status{Outcome: OutcomeFailed, Message: "rejected"}, nil
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, OutcomeFailed, status.Outcome)
	assert.Equal(t, "rejected", status.Message)
}

func TestPollTreatsErrorAsFailure(t *testing.T) {
	status := Poll(context.Background(), time.Millisecond, 10, func(ctx context.Context) (Status, error) {
		return Status{}, errors.New("connection refused")
	})

	assert.Equal(t, OutcomeFailed, status.Outcome)
	assert.Equal(t, "connection refused", status.Message)
}

func TestPollHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status := Poll(ctx, time.Second, 10, func(ctx context.Context) (Status, error) {
		return Status{Outcome: OutcomePending}, nil
	})

	assert.Equal(t, OutcomeFailed, status.Outcome)
}
