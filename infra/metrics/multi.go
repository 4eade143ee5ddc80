package metrics

import coremetrics "github.com/voltpath/vlink/core/metrics"

// Config defines which sinks are enabled and where they point.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9095"
	}
}

// MultiSink fans session events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStateTransition forwards the record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordStateTransition(tr coremetrics.StateTransition) error {
	for _, s := range m.Sinks {
		if err := s.RecordStateTransition(tr); err != nil {
			return err
		}
	}
	return nil
}

// RecordActivation forwards the record to all sinks.
func (m *MultiSink) RecordActivation(res coremetrics.ActivationResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordActivation(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordSnapshot forwards the record to all sinks.
func (m *MultiSink) RecordSnapshot(vehicleID string) error {
	for _, s := range m.Sinks {
		if err := s.RecordSnapshot(vehicleID); err != nil {
			return err
		}
	}
	return nil
}

// RecordDecodeFailure forwards the record to all sinks.
func (m *MultiSink) RecordDecodeFailure(topic string) error {
	for _, s := range m.Sinks {
		if err := s.RecordDecodeFailure(topic); err != nil {
			return err
		}
	}
	return nil
}
