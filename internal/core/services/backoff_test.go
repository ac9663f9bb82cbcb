package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	maxDelay := time.Second

	assert.Zero(t, CalculateBackoff(base, maxDelay, 0))
	assert.Zero(t, CalculateBackoff(0, maxDelay, 3))

	for attempt := 1; attempt <= 40; attempt++ {
		want := base << (min(attempt, 30) - 1)
		if want > maxDelay || want <= 0 {
			want = maxDelay
		}
		got := CalculateBackoff(base, maxDelay, attempt)
		assert.GreaterOrEqual(t, got, want*3/4, "attempt %d", attempt)
		assert.LessOrEqual(t, got, want*5/4, "attempt %d", attempt)
	}
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
