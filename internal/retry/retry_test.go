package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("transient")
	errPermanent = errors.New("permanent")
)

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func TestDoRetriesTransientOnce(t *testing.T) {
	calls := 0
	var retried []int
	p := Default(isTransient)
	p.Delay = time.Millisecond
	p.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	err := Do(context.Background(), p, func(context.Context) error {
		calls++
		if calls == 1 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, []int{1}, retried)
}

func TestDoExhaustedWrapsLastError(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 2, Delay: time.Millisecond, Retryable: isTransient}

	err := Do(context.Background(), p, func(context.Context) error {
		calls++
		return errTransient
	})
	require.ErrorIs(t, err, errTransient)
	require.Contains(t, err.Error(), "after 2 attempts")
	require.Equal(t, 2, calls)
}

func TestDoDoesNotRetryPermanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Default(isTransient), func(context.Context) error {
		calls++
		return errPermanent
	})
	require.ErrorIs(t, err, errPermanent)
	require.Equal(t, 1, calls)
}

func TestValueReturnsResult(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 3, Delay: time.Millisecond, Retryable: isTransient}
	got, err := Value(context.Background(), p, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, 3, calls)
}

func TestValueStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 5, Delay: time.Hour, Retryable: isTransient}

	_, err := Value(ctx, p, func(context.Context) (int, error) {
		cancel()
		return 0, errTransient
	})
	require.ErrorIs(t, err, context.Canceled)
}
