package toolbelt

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelay(t *testing.T) {
	maxBackoff := time.Second

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, expected := range want {
		assert.Equal(t, expected, backoffDelay(i+1, maxBackoff), "attempt %d", i+1)
	}
}

func TestBackoffDelayLargeAttempts(t *testing.T) {
	// Shift overflow must never produce a negative delay.
	for attempt := 1; attempt <= 100; attempt++ {
		d := backoffDelay(attempt, 10*time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 10*time.Second)
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	var calls atomic.Int32
	tool, err := NewTool("flaky", "Fails twice, then works.",
		func(_ context.Context, args addArgs) (int, error) {
			if calls.Add(1) < 3 {
				return 0, errors.New("transient")
			}
			return args.A + args.B, nil
		},
		WithRetry(5*time.Second, 10*time.Millisecond))
	require.NoError(t, err)

	out, err := tool.Run(context.Background(), raw(`{"a": 5, "b": 3}`))
	require.NoError(t, err)
	assert.Equal(t, "8", string(out))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryFirstAttemptIsImmediate(t *testing.T) {
	var calls atomic.Int32
	tool, err := NewTool("steady", "Works first time.",
		func(_ context.Context, args addArgs) (int, error) {
			calls.Add(1)
			return args.A + args.B, nil
		},
		WithRetry(time.Minute, time.Second))
	require.NoError(t, err)

	start := time.Now()
	_, err = tool.Run(context.Background(), raw(`{"a": 1, "b": 2}`))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRetryExhaustion(t *testing.T) {
	boom := errors.New("still down")
	var calls atomic.Int32
	// Two 40ms pauses fit into the 110ms budget, a third would cross it.
	invoke := func(context.Context) (json.RawMessage, error) {
		calls.Add(1)
		return nil, boom
	}

	_, err := runWithRetry(context.Background(), 110*time.Millisecond, 40*time.Millisecond, invoke)
	require.Error(t, err)

	var retryErr *RetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 3, retryErr.Attempts)
	assert.GreaterOrEqual(t, retryErr.Elapsed, 80*time.Millisecond)
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsRetryExhausted(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryNeverStartsDoomedWait(t *testing.T) {
	// With a budget smaller than the first pause the loop must give up right
	// after the first failure instead of sleeping.
	start := time.Now()
	_, err := runWithRetry(context.Background(), 50*time.Millisecond, 10*time.Second,
		func(context.Context) (json.RawMessage, error) {
			return nil, errors.New("down")
		})
	var retryErr *RetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 1, retryErr.Attempts)
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	done := make(chan error, 1)
	go func() {
		_, err := runWithRetry(ctx, time.Minute, time.Minute,
			func(context.Context) (json.RawMessage, error) {
				calls.Add(1)
				return nil, errors.New("down")
			})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(1), calls.Load())
	case <-time.After(time.Second):
		t.Fatal("retry loop did not stop on cancellation")
	}
}

func TestRetryDefaultsApplied(t *testing.T) {
	o, err := buildToolOptions([]ToolOption{WithRetry(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, defaultMaxTimeout, o.policy.maxTimeout)
	assert.Equal(t, defaultMaxBackoff, o.policy.maxBackoff)
}

func TestRetryDoesNotRetryValidationErrors(t *testing.T) {
	var calls atomic.Int32
	tool, err := NewTool("flaky", "Counts calls.",
		func(_ context.Context, args addArgs) (int, error) {
			calls.Add(1)
			return 0, errors.New("down")
		},
		WithRetry(time.Second, 10*time.Millisecond))
	require.NoError(t, err)

	_, err = tool.Run(context.Background(), raw(`{"a": "one", "b": 2}`))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, int32(0), calls.Load(), "invalid arguments must never reach the target")
}
