package session

import (
	"context"
	"sync"
	"time"
)

// Waiter is a single-use handoff between an asynchronous producer and a
// blocked consumer. Exactly one resolution wins; later ones are dropped.
// The winning outcome is latched, so every Await call returns it, no matter
// how many callers wait or when they arrive. Each waiter carries its own
// timeout so two concurrent activation attempts can never cross-resolve each
// other.
type Waiter[T any] struct {
	once  sync.Once
	timer *time.Timer
	done  chan struct{}
	out   outcome[T]
}

type outcome[T any] struct {
	val T
	err error
}

// NewWaiter creates a Waiter whose timeout resolves it with the result of
// onTimeout if no producer arrives within d. onTimeout is evaluated at fire
// time so it can report state as of the expiry.
func NewWaiter[T any](d time.Duration, onTimeout func() (T, error)) *Waiter[T] {
	w := &Waiter[T]{done: make(chan struct{})}
	w.timer = time.AfterFunc(d, func() {
		v, err := onTimeout()
		w.resolve(v, err)
	})
	return w
}

// Resolve delivers the result. Only the first resolution, including the
// timeout, has any effect.
func (w *Waiter[T]) Resolve(v T, err error) {
	w.resolve(v, err)
}

// Cancel resolves the waiter with err so no consumer is left waiting forever.
func (w *Waiter[T]) Cancel(err error) {
	var zero T
	w.resolve(zero, err)
}

func (w *Waiter[T]) resolve(v T, err error) {
	w.once.Do(func() {
		w.timer.Stop()
		w.out = outcome[T]{val: v, err: err}
		close(w.done)
	})
}

// Await blocks until the waiter resolves or ctx is done. It may be called any
// number of times; every call observes the same resolution.
func (w *Waiter[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-w.done:
		return w.out.val, w.out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
