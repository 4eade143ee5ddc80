package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaiterResolve(t *testing.T) {
	w := NewWaiter[string](time.Second, func() (string, error) {
		return "", ErrConnectTimeout
	})
	w.Resolve("ok", nil)
	v, err := w.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestWaiterTimeout(t *testing.T) {
	w := NewWaiter[struct{}](10*time.Millisecond, func() (struct{}, error) {
		return struct{}{}, ErrConnectTimeout
	})
	_, err := w.Await(context.Background())
	assert.ErrorIs(t, err, ErrConnectTimeout)
}

func TestWaiterFirstResolutionWins(t *testing.T) {
	w := NewWaiter[int](time.Second, func() (int, error) { return 0, ErrConnectTimeout })
	w.Resolve(1, nil)
	w.Resolve(2, nil)
	w.Cancel(errors.New("late"))
	v, err := w.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestWaiterLateTimeoutIsIgnored(t *testing.T) {
	w := NewWaiter[struct{}](20*time.Millisecond, func() (struct{}, error) {
		return struct{}{}, ErrConnectTimeout
	})
	w.Resolve(struct{}{}, nil)
	time.Sleep(40 * time.Millisecond)
	_, err := w.Await(context.Background())
	assert.NoError(t, err)
}

func TestWaiterRepeatedAwait(t *testing.T) {
	w := NewWaiter[string](time.Second, func() (string, error) {
		return "", ErrConnectTimeout
	})
	w.Resolve("ok", nil)
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		v, err := w.Await(ctx)
		cancel()
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
	}
}

func TestWaiterCancel(t *testing.T) {
	w := NewWaiter[struct{}](time.Second, func() (struct{}, error) {
		return struct{}{}, ErrConnectTimeout
	})
	w.Cancel(ErrSessionClosed)
	_, err := w.Await(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestWaiterAwaitContext(t *testing.T) {
	w := NewWaiter[struct{}](time.Minute, func() (struct{}, error) {
		return struct{}{}, ErrConnectTimeout
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := w.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaiterConcurrentResolvers(t *testing.T) {
	w := NewWaiter[int](5*time.Millisecond, func() (int, error) { return 0, ErrConnectTimeout })
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w.Resolve(n, nil)
		}(i)
	}
	wg.Wait()
	time.Sleep(10 * time.Millisecond) // let the timeout race too
	_, err := w.Await(context.Background())
	assert.NoError(t, err)
}
