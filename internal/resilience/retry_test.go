package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestCall_ZeroPolicyMakesOneAttempt(t *testing.T) {
	calls := 0
	_, err := Call(context.Background(), Policy{}, func(context.Context) (string, error) {
		calls++
		return "", NewTransientError(errors.New("busy"), 503)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCall_RetriesTransient(t *testing.T) {
	calls := 0
	retried := 0
	p := fastPolicy(3)
	p.OnRetry = func(int, error) { retried++ }

	got, err := Call(context.Background(), p, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(errors.New("busy"), 429)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retried)
}

func TestCall_DoesNotRetryPermanent(t *testing.T) {
	calls := 0
	permanent := errors.New("bad request")

	_, err := Call(context.Background(), fastPolicy(5), func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestCall_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Call(ctx, fastPolicy(5), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(errors.New("busy"), 503)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(fmt.Errorf("wrap: %w", NewTransientError(errors.New("x"), 502))))
	assert.True(t, IsTransient(errors.New("read tcp: connection reset by peer")))
	assert.False(t, IsTransient(errors.New("invalid api key")))
}

func TestIsTransientStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientStatus(code), code)
	}
	for _, code := range []int{200, 400, 401, 404} {
		assert.False(t, IsTransientStatus(code), code)
	}
}

func TestPolicyBackoffCapped(t *testing.T) {
	p := Policy{InitialBackoff: time.Second, MaxBackoff: 2 * time.Second}.withDefaults()

	assert.Equal(t, time.Second, p.backoff(0))
	assert.Equal(t, 2*time.Second, p.backoff(5))
}
