package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errThrottled = errors.New("throttled")

func TestDo_SucceedsFirstTime(t *testing.T) {
	called := 0
	err := Do(context.Background(), Config{MaxRetries: 3, InitialBackoff: time.Millisecond}, func() error {
		called++
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, called)
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	var waits []time.Duration
	cfg := Config{
		MaxRetries:     5,
		InitialBackoff: time.Millisecond,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			assert.ErrorIs(t, err, errThrottled)
			waits = append(waits, wait)
		},
	}

	called := 0
	err := Do(context.Background(), cfg, func() error {
		called++
		if called < 3 {
			return errThrottled
		}
		return nil
	}, func(err error) bool { return errors.Is(err, errThrottled) })

	require.NoError(t, err)
	assert.Equal(t, 3, called)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestDo_Exhausted(t *testing.T) {
	called := 0
	err := Do(context.Background(), Config{MaxRetries: 3, InitialBackoff: time.Millisecond}, func() error {
		called++
		return errThrottled
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 3, called)
	assert.ErrorIs(t, err, errThrottled)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	permanent := errors.New("validation failed")

	called := 0
	err := Do(context.Background(), Config{MaxRetries: 5, InitialBackoff: time.Millisecond}, func() error {
		called++
		if called == 2 {
			return permanent
		}
		return errThrottled
	}, func(err error) bool { return errors.Is(err, errThrottled) })

	require.Error(t, err)
	assert.Equal(t, 2, called)
	assert.ErrorIs(t, err, permanent)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	called := 0
	err := Do(ctx, Config{MaxRetries: 10, InitialBackoff: 50 * time.Millisecond}, func() error {
		called++
		cancel()
		return errThrottled
	}, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, called)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		attempt int
		want    time.Duration
	}{
		{"first retry", Config{InitialBackoff: 10 * time.Millisecond, MaxRetries: 5}, 1, 10 * time.Millisecond},
		{"exponential", Config{InitialBackoff: 10 * time.Millisecond, MaxRetries: 5}, 4, 80 * time.Millisecond},
		{"capped", Config{InitialBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond, MaxRetries: 5}, 4, 50 * time.Millisecond},
		// 200ms + 200ms*0.5*2/5
		{"jitter", Config{InitialBackoff: 100 * time.Millisecond, MaxRetries: 5, Jitter: 0.5}, 2, 240 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Backoff(tt.cfg, tt.attempt))
		})
	}
}
