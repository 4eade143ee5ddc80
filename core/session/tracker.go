package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Tracker reconciles asynchronous per-topic subscription acknowledgments
// against the set of topics requested for a session. It signals completion
// exactly once, the instant no topic is pending: success when every topic was
// granted, otherwise a SubscriptionError naming the rejected topics. If the
// timeout fires first the error names every topic still pending and later
// acknowledgment batches are ignored.
type Tracker struct {
	mu           sync.Mutex
	pending      map[string]struct{}
	acknowledged map[string]struct{}
	failed       map[string]struct{}
	done         bool
	waiter       *Waiter[struct{}]
}

// NewTracker creates a Tracker for the given requested topics with a
// completion deadline of d.
func NewTracker(topics []string, d time.Duration) *Tracker {
	t := &Tracker{
		pending:      make(map[string]struct{}, len(topics)),
		acknowledged: make(map[string]struct{}),
		failed:       make(map[string]struct{}),
	}
	for _, topic := range topics {
		t.pending[topic] = struct{}{}
	}
	t.waiter = NewWaiter[struct{}](d, t.expire)
	return t
}

// Ack records one acknowledgment batch. Topics outside the requested set and
// batches arriving after completion are ignored.
func (t *Tracker) Ack(results map[string]bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	for topic, ok := range results {
		if _, waiting := t.pending[topic]; !waiting {
			continue
		}
		delete(t.pending, topic)
		if ok {
			t.acknowledged[topic] = struct{}{}
		} else {
			t.failed[topic] = struct{}{}
		}
	}
	if len(t.pending) > 0 {
		return
	}
	t.done = true
	if len(t.failed) > 0 {
		t.waiter.Resolve(struct{}{}, &SubscriptionError{Topics: sortedKeys(t.failed)})
		return
	}
	t.waiter.Resolve(struct{}{}, nil)
}

// expire builds the timeout error from the topics still pending at fire time.
func (t *Tracker) expire() (struct{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return struct{}{}, nil
	}
	t.done = true
	return struct{}{}, &SubscriptionError{Topics: sortedKeys(t.pending), Timeout: true}
}

// Wait blocks until every topic is accounted for, the timeout fires, or ctx
// is done.
func (t *Tracker) Wait(ctx context.Context) error {
	_, err := t.waiter.Await(ctx)
	return err
}

// Cancel resolves the tracker's waiter with err and stops accepting
// acknowledgments. Used during session teardown.
func (t *Tracker) Cancel(err error) {
	t.mu.Lock()
	t.done = true
	t.mu.Unlock()
	t.waiter.Cancel(err)
}

// Pending returns the topics not yet acknowledged, sorted.
func (t *Tracker) Pending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.pending)
}

// Acknowledged returns the granted topics, sorted.
func (t *Tracker) Acknowledged() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.acknowledged)
}

// Failed returns the rejected topics, sorted.
func (t *Tracker) Failed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.failed)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
