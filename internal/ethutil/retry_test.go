package ethutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(errors.New("429 Too Many Requests")))
	assert.True(t, IsRateLimitError(errors.New("rpc error -32005: limit exceeded")))
	assert.False(t, IsRateLimitError(errors.New("execution reverted")))
	assert.False(t, IsRateLimitError(nil))
}

func TestRetryRateLimited(t *testing.T) {
	t.Run("recovers after throttle", func(t *testing.T) {
		calls := 0
		v, err := RetryRateLimited(context.Background(), func(context.Context) (int, error) {
			calls++
			if calls == 1 {
				return 0, errors.New("429 Too Many Requests")
			}
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, v)
		assert.Equal(t, 2, calls)
	})
	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		_, err := RetryRateLimited(context.Background(), func(context.Context) (int, error) {
			calls++
			return 0, errors.New("execution reverted")
		})
		assert.EqualError(t, err, "execution reverted")
		assert.Equal(t, 1, calls)
	})
	t.Run("gives up after three tries", func(t *testing.T) {
		calls := 0
		_, err := RetryRateLimited(context.Background(), func(context.Context) (int, error) {
			calls++
			return 0, errors.New("-32005")
		})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})
	t.Run("cancelled while backing off", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		_, err := RetryRateLimited(ctx, func(context.Context) (int, error) {
			cancel()
			return 0, errors.New("Too Many Requests")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
