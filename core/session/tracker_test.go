package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerAllAcknowledged(t *testing.T) {
	tk := NewTracker([]string{"telemetry/v-1", "connection/v-1"}, time.Second)
	tk.Ack(map[string]bool{"telemetry/v-1": true})
	assert.Equal(t, []string{"connection/v-1"}, tk.Pending())
	tk.Ack(map[string]bool{"connection/v-1": true})
	assert.NoError(t, tk.Wait(context.Background()))
	assert.Empty(t, tk.Pending())
	assert.Equal(t, []string{"connection/v-1", "telemetry/v-1"}, tk.Acknowledged())
}

func TestTrackerFailedTopicsNamed(t *testing.T) {
	tk := NewTracker([]string{"telemetry/v-1", "connection/v-1"}, time.Second)
	tk.Ack(map[string]bool{"telemetry/v-1": false, "connection/v-1": true})
	err := tk.Wait(context.Background())
	var se *SubscriptionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"telemetry/v-1"}, se.Topics)
	assert.False(t, se.Timeout)
}

func TestTrackerTimeoutNamesPending(t *testing.T) {
	tk := NewTracker([]string{"telemetry/v-1", "connection/v-1"}, 20*time.Millisecond)
	tk.Ack(map[string]bool{"connection/v-1": true})
	err := tk.Wait(context.Background())
	var se *SubscriptionError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Timeout)
	assert.Equal(t, []string{"telemetry/v-1"}, se.Topics)
	assert.ErrorIs(t, err, ErrSubscribeTimeout)
}

func TestTrackerIgnoresLateAcks(t *testing.T) {
	tk := NewTracker([]string{"telemetry/v-1"}, 10*time.Millisecond)
	err := tk.Wait(context.Background())
	require.Error(t, err)
	// A batch arriving after the timeout must not re-resolve or panic.
	tk.Ack(map[string]bool{"telemetry/v-1": true})
	assert.Empty(t, tk.Acknowledged())
}

func TestTrackerTimeoutAfterCompletionIsNoop(t *testing.T) {
	tk := NewTracker([]string{"telemetry/v-1"}, 20*time.Millisecond)
	tk.Ack(map[string]bool{"telemetry/v-1": true})
	require.NoError(t, tk.Wait(context.Background()))
	time.Sleep(40 * time.Millisecond) // timer fires after completion
	require.NoError(t, tk.Wait(context.Background()))
}

func TestTrackerIgnoresUnknownTopics(t *testing.T) {
	tk := NewTracker([]string{"telemetry/v-1"}, time.Second)
	tk.Ack(map[string]bool{"other/v-9": true})
	assert.Equal(t, []string{"telemetry/v-1"}, tk.Pending())
	assert.Empty(t, tk.Acknowledged())
}

func TestTrackerPartitionInvariant(t *testing.T) {
	topics := []string{"a/v", "b/v", "c/v", "d/v"}
	tk := NewTracker(topics, time.Second)
	tk.Ack(map[string]bool{"a/v": true, "b/v": false})

	got := map[string]int{}
	for _, s := range tk.Pending() {
		got[s]++
	}
	for _, s := range tk.Acknowledged() {
		got[s]++
	}
	for _, s := range tk.Failed() {
		got[s]++
	}
	require.Len(t, got, len(topics))
	for topic, n := range got {
		assert.Equalf(t, 1, n, "topic %s appears in %d sets", topic, n)
	}
}

func TestTrackerCancel(t *testing.T) {
	tk := NewTracker([]string{"telemetry/v-1"}, time.Second)
	tk.Cancel(ErrSessionClosed)
	assert.ErrorIs(t, tk.Wait(context.Background()), ErrSessionClosed)
	tk.Ack(map[string]bool{"telemetry/v-1": true})
	assert.Empty(t, tk.Acknowledged())
}
