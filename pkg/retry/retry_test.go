package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{MaxAttempts: 3}, func(ctx context.Context, attempt int) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	lastErr := errors.New("still broken")
	err := Do(context.Background(), Config{MaxAttempts: 2}, func(ctx context.Context, attempt int) error {
		calls++
		return lastErr
	})

	assert.ErrorIs(t, err, lastErr)
	assert.Equal(t, 2, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	fatal := errors.New("bad request")
	err := Do(context.Background(), Config{MaxAttempts: 5}, func(ctx context.Context, attempt int) error {
		calls++
		return Stop(fatal)
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, Config{MaxAttempts: 3}, func(ctx context.Context, attempt int) error {
		t.Fatal("callback must not run with cancelled context")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoValueFallback(t *testing.T) {
	value, err := DoValue(context.Background(), Config{MaxAttempts: 2}, 42, func(ctx context.Context, attempt int) (int, error) {
		return 0, errors.New("no value")
	})

	require.Error(t, err)
	assert.Equal(t, 42, value)
}

func TestDoValueReturnsResult(t *testing.T) {
	value, err := DoValue(context.Background(), Config{MaxAttempts: 2}, "", func(ctx context.Context, attempt int) (string, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", value)
}
