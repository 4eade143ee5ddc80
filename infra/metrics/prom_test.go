package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/voltpath/vlink/core/metrics"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}

	if err := sink.RecordStateTransition(coremetrics.StateTransition{From: "idle", To: "connecting"}); err != nil {
		t.Fatalf("record transition: %v", err)
	}
	if err := sink.RecordActivation(coremetrics.ActivationResult{Outcome: "connected", Duration: 120 * time.Millisecond}); err != nil {
		t.Fatalf("record activation: %v", err)
	}
	if err := sink.RecordSnapshot("v-1"); err != nil {
		t.Fatalf("record snapshot: %v", err)
	}
	if err := sink.RecordDecodeFailure("telemetry/v-1"); err != nil {
		t.Fatalf("record decode failure: %v", err)
	}

	expected := `
# HELP session_state_transitions_total Total number of session state transitions
# TYPE session_state_transitions_total counter
session_state_transitions_total{from="idle",to="connecting"} 1
`
	if err := testutil.CollectAndCompare(sink.transitions, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected transition metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.activations); c == 0 {
		t.Errorf("activation not recorded")
	}
	expectedSnapshots := `
# HELP telemetry_snapshots_total Total number of decoded telemetry snapshots
# TYPE telemetry_snapshots_total counter
telemetry_snapshots_total{vehicle_id="v-1"} 1
`
	if err := testutil.CollectAndCompare(sink.snapshots, strings.NewReader(expectedSnapshots)); err != nil {
		t.Errorf("unexpected snapshot metrics: %v", err)
	}
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("create first sink: %v", err)
	}
	second, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("create second sink: %v", err)
	}

	if err := first.RecordSnapshot("v-1"); err != nil {
		t.Fatalf("record snapshot: %v", err)
	}
	if err := second.RecordSnapshot("v-1"); err != nil {
		t.Fatalf("record snapshot: %v", err)
	}
	expected := `
# HELP telemetry_snapshots_total Total number of decoded telemetry snapshots
# TYPE telemetry_snapshots_total counter
telemetry_snapshots_total{vehicle_id="v-1"} 2
`
	if err := testutil.CollectAndCompare(second.snapshots, strings.NewReader(expected)); err != nil {
		t.Errorf("collectors not shared: %v", err)
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	multi := NewMultiSink(coremetrics.NopSink{}, prom)
	if err := multi.RecordDecodeFailure("telemetry/v-1"); err != nil {
		t.Fatalf("multi record: %v", err)
	}
	if c := testutil.CollectAndCount(prom.decodeFailures); c == 0 {
		t.Errorf("decode failure not forwarded")
	}
}
