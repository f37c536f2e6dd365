package translator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/dialogue-translator/internal/mask"
)

var fastRetry = RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestWithRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), fastRetry, func() (string, error) {
		calls++
		if calls < 3 {
			return "", &Error{Message: "busy", Retryable: true}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), fastRetry, func() (string, error) {
		calls++
		return "", &Error{Message: "busy", Retryable: true}
	})
	require.Error(t, err)
	assert.Equal(t, fastRetry.MaxRetries+1, calls)
}

func TestWithRetry_NonRetryable(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), fastRetry, func() (string, error) {
		calls++
		return "", errors.New("plain failure")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WithRetry(ctx, fastRetry, func() (string, error) { return "ok", nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestError(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{Message: "call failed", Cause: cause}
	assert.Equal(t, "translator error: call failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "translator error: empty", (&Error{Message: "empty"}).Error())
}

func TestEcho(t *testing.T) {
	got, err := Echo{}.Translate(context.Background(), "Aが来た", Options{}, mask.Table{{Code: "A", Value: "x"}})
	require.NoError(t, err)
	assert.Equal(t, "Aが来た", got)
}
