package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/voltpath/vlink/auth"
	"github.com/voltpath/vlink/config"
	"github.com/voltpath/vlink/core/events"
	coremetrics "github.com/voltpath/vlink/core/metrics"
	"github.com/voltpath/vlink/core/session"
	"github.com/voltpath/vlink/core/snapshot"
	"github.com/voltpath/vlink/infra/bootstrap"
	"github.com/voltpath/vlink/infra/broker"
	"github.com/voltpath/vlink/infra/logger"
	"github.com/voltpath/vlink/infra/metrics"
	"github.com/voltpath/vlink/internal/eventbus"
)

// Service wires the session coordinator to its infrastructure: the bootstrap
// backend, the broker transport, the metrics sinks and the snapshot store.
type Service struct {
	Coordinator *session.Coordinator
	Store       *snapshot.MemoryStore
	bus         eventbus.EventBus
	log         logger.Logger
	promEnabled bool
	promAddr    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var tokens session.TokenProvider
	if cfg.Auth.StaticToken != "" {
		tokens = auth.StaticToken(cfg.Auth.StaticToken)
	} else {
		tokens = auth.NewClientCred(cfg.Auth.Conf())
	}

	boot := bootstrap.NewClient(cfg.Bootstrap, tokens)

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	store := snapshot.NewMemoryStore()
	brokerCfg := cfg.Broker
	factory := func() session.Transport { return broker.NewPahoTransport(brokerCfg) }

	coord, err := session.NewCoordinator(cfg.Session.ToSession(), boot, tokens,
		snapshot.JSONDecoder{}, factory, sink, bus, logger.New("session"), store.Set)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}

	return &Service{
		Coordinator: coord,
		Store:       store,
		bus:         bus,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promAddr:    cfg.Metrics.PrometheusAddr,
	}, nil
}

// Run activates the session and blocks until the context is cancelled or the
// broker link drops. The session is torn down before returning.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	if err := s.Coordinator.Activate(ctx); err != nil {
		return fmt.Errorf("activate session: %w", err)
	}
	s.log.Infof("session connected")

	for {
		select {
		case <-ctx.Done():
			s.Coordinator.Disconnect()
			return nil
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			switch e := ev.(type) {
			case events.SnapshotEvent:
				s.log.Debugf("snapshot received for %s", e.Snapshot.VehicleID)
			case events.StateEvent:
				if e.To == session.Disconnected.String() {
					s.log.Errorf("session disconnected: %v", s.Coordinator.Err())
					return s.Coordinator.Err()
				}
			case events.ErrorEvent:
				s.log.Warnf("%s error: %v", e.Stage, e.Err)
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Coordinator.Disconnect()
	s.bus.Close()
	return nil
}
