package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/voltpath/vlink/core/metrics"
)

// PromSink records session events in Prometheus metrics.
type PromSink struct {
	transitions    *prometheus.CounterVec
	activations    *prometheus.HistogramVec
	snapshots      *prometheus.CounterVec
	decodeFailures *prometheus.CounterVec
}

// NewPromSink registers session metrics on the provided Prometheus registerer.
// If reg is nil, the default registerer is used. If the collectors are already
// registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_state_transitions_total",
		Help: "Total number of session state transitions",
	}, []string{"from", "to"})
	activations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "session_activation_seconds",
		Help:    "Duration of session activation attempts",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	snapshots := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_snapshots_total",
		Help: "Total number of decoded telemetry snapshots",
	}, []string{"vehicle_id"})
	decodeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_decode_failures_total",
		Help: "Total number of telemetry payloads that failed to decode",
	}, []string{"topic"})

	sink := &PromSink{
		transitions:    transitions,
		activations:    activations,
		snapshots:      snapshots,
		decodeFailures: decodeFailures,
	}
	for i, c := range []prometheus.Collector{transitions, activations, snapshots, decodeFailures} {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch i {
			case 0:
				sink.transitions = are.ExistingCollector.(*prometheus.CounterVec)
			case 1:
				sink.activations = are.ExistingCollector.(*prometheus.HistogramVec)
			case 2:
				sink.snapshots = are.ExistingCollector.(*prometheus.CounterVec)
			case 3:
				sink.decodeFailures = are.ExistingCollector.(*prometheus.CounterVec)
			}
		}
	}
	return sink, nil
}

// RecordStateTransition increments the transition counter.
func (s *PromSink) RecordStateTransition(tr coremetrics.StateTransition) error {
	s.transitions.WithLabelValues(tr.From, tr.To).Inc()
	return nil
}

// RecordActivation observes the activation duration histogram.
func (s *PromSink) RecordActivation(res coremetrics.ActivationResult) error {
	s.activations.WithLabelValues(res.Outcome).Observe(res.Duration.Seconds())
	return nil
}

// RecordSnapshot increments the snapshot counter.
func (s *PromSink) RecordSnapshot(vehicleID string) error {
	s.snapshots.WithLabelValues(vehicleID).Inc()
	return nil
}

// RecordDecodeFailure increments the decode failure counter.
func (s *PromSink) RecordDecodeFailure(topic string) error {
	s.decodeFailures.WithLabelValues(topic).Inc()
	return nil
}
