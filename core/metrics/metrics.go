package metrics

import "time"

// StateTransition represents one session state change to be recorded.
type StateTransition struct {
	From string
	To   string
}

// ActivationResult captures the terminal outcome of one activation attempt.
type ActivationResult struct {
	Outcome  string
	Duration time.Duration
}

// Sink records session observability events.
type Sink interface {
	RecordStateTransition(tr StateTransition) error
	RecordActivation(res ActivationResult) error
	RecordSnapshot(vehicleID string) error
	RecordDecodeFailure(topic string) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordStateTransition(StateTransition) error { return nil }
func (NopSink) RecordActivation(ActivationResult) error     { return nil }
func (NopSink) RecordSnapshot(string) error                 { return nil }
func (NopSink) RecordDecodeFailure(string) error            { return nil }
