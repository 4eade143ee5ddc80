package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/voltpath/vlink/core/events"
	"github.com/voltpath/vlink/core/logger"
	"github.com/voltpath/vlink/core/metrics"
	"github.com/voltpath/vlink/core/model"
	"github.com/voltpath/vlink/internal/eventbus"
)

// TokenProvider supplies the current bearer token for the telemetry backend.
// Token refresh happens out-of-band; the session engine only consumes it.
type TokenProvider interface {
	CurrentAccessToken() (string, error)
}

// SnapshotDecoder turns a raw telemetry payload into a snapshot.
type SnapshotDecoder interface {
	Decode(payload []byte) (model.TelemetrySnapshot, error)
}

// Bootstrapper performs the sequential HTTP handshake preceding the broker
// session, plus the post-subscribe connection state check.
type Bootstrapper interface {
	DiscoverHost(ctx context.Context) (model.HostInfo, error)
	RegisterDevice(ctx context.Context) (model.DeviceRegistration, error)
	FetchVehicleMetadata(ctx context.Context, vehicleID, clientID string) ([]model.VehicleMetadata, error)
	SubscribeProtocols(ctx context.Context, vehicleID, clientID string, protocols []model.ProtocolDescriptor) error
	ConnectionState(ctx context.Context, clientID string) (model.ConnectionState, error)
}

// SnapshotFunc receives each decoded telemetry snapshot.
type SnapshotFunc func(model.TelemetrySnapshot)

// Default waiter timeouts for the two handshake phases.
const (
	DefaultConnectTimeout   = 10 * time.Second
	DefaultSubscribeTimeout = 5 * time.Second
)

// Config carries the per-session settings of the Coordinator.
type Config struct {
	VehicleID string
	// TelemetryProtocolID selects which protocol's payloads are decoded into
	// snapshots. Defaults to model.ProtocolVehicleStatusSync.
	TelemetryProtocolID string
	ConnectTimeout      time.Duration
	SubscribeTimeout    time.Duration
}

func (c *Config) setDefaults() {
	if c.TelemetryProtocolID == "" {
		c.TelemetryProtocolID = model.ProtocolVehicleStatusSync
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.SubscribeTimeout <= 0 {
		c.SubscribeTimeout = DefaultSubscribeTimeout
	}
}

// Coordinator orchestrates bootstrap, broker connection, topic subscription
// and online verification into one state machine. State and session data are
// only touched under the coordinator's mutex; transport callbacks reach them
// through a single event-consuming goroutine.
type Coordinator struct {
	cfg          Config
	boot         Bootstrapper
	tokens       TokenProvider
	decoder      SnapshotDecoder
	newTransport TransportFactory
	sink         metrics.Sink
	bus          eventbus.EventBus
	log          logger.Logger
	onSnapshot   SnapshotFunc

	mu            sync.Mutex
	state         State
	lastErr       error
	gen           uint64
	transport     Transport
	registration  model.DeviceRegistration
	metadata      *model.VehicleMetadata
	topics        []string
	router        *Router
	connectWaiter *Waiter[struct{}]
	tracker       *Tracker
}

// NewCoordinator creates a Coordinator. boot, tokens, decoder and factory are
// mandatory; sink, bus and log may be nil.
func NewCoordinator(cfg Config, boot Bootstrapper, tokens TokenProvider, decoder SnapshotDecoder,
	factory TransportFactory, sink metrics.Sink, bus eventbus.EventBus, log logger.Logger,
	onSnapshot SnapshotFunc) (*Coordinator, error) {
	if boot == nil {
		return nil, fmt.Errorf("bootstrapper is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token provider is required")
	}
	if decoder == nil {
		return nil, fmt.Errorf("snapshot decoder is required")
	}
	if factory == nil {
		return nil, fmt.Errorf("transport factory is required")
	}
	if cfg.VehicleID == "" {
		return nil, fmt.Errorf("vehicle id is required")
	}
	cfg.setDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Coordinator{
		cfg:          cfg,
		boot:         boot,
		tokens:       tokens,
		decoder:      decoder,
		newTransport: factory,
		sink:         sink,
		bus:          bus,
		log:          log,
		onSnapshot:   onSnapshot,
	}, nil
}

// State returns the current session state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the reason of the last Failed or Disconnected transition.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Topics returns the topics requested for the current activation.
func (c *Coordinator) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.topics))
	copy(out, c.topics)
	return out
}

// Activate runs the full activation sequence: bootstrap, broker connect,
// topic subscription and online verification. It blocks until the session is
// Connected or returns exactly one typed error, tearing down any partially
// opened link. Retrying a failed activation is the caller's responsibility.
func (c *Coordinator) Activate(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Idle, Disconnected, Failed:
	default:
		c.mu.Unlock()
		return ErrAlreadyActive
	}
	c.gen++
	gen := c.gen
	c.lastErr = nil
	c.setStateLocked(Connecting)
	c.mu.Unlock()

	start := time.Now()
	err := c.run(ctx, gen)
	if err == nil {
		c.recordActivation("connected", time.Since(start))
		return nil
	}

	c.log.Errorf("activation failed: %v", err)
	if c.bus != nil {
		c.bus.Publish(events.ErrorEvent{Stage: "activate", Err: err})
	}
	if errors.Is(err, ErrSessionClosed) {
		// Disconnect won the race; teardown already settled the state.
		c.recordActivation("aborted", time.Since(start))
		return err
	}
	c.fail(gen, err)
	c.recordActivation("failed", time.Since(start))
	return err
}

func (c *Coordinator) run(ctx context.Context, gen uint64) error {
	token, err := c.tokens.CurrentAccessToken()
	if err != nil || token == "" {
		return ErrMissingAuthorization
	}

	host, err := c.boot.DiscoverHost(ctx)
	if err != nil {
		return err
	}
	reg, err := c.boot.RegisterDevice(ctx)
	if err != nil {
		return err
	}
	metas, err := c.boot.FetchVehicleMetadata(ctx, c.cfg.VehicleID, reg.ClientID)
	if err != nil {
		return err
	}
	meta, err := selectMetadata(metas, c.cfg.VehicleID)
	if err != nil {
		return err
	}
	if err := c.boot.SubscribeProtocols(ctx, meta.VehicleID, reg.ClientID, meta.Protocols); err != nil {
		return err
	}

	router := NewRouter(c.log)
	topics := make([]string, 0, len(meta.Protocols))
	for _, p := range meta.Protocols {
		var h Handler
		if p.ID == c.cfg.TelemetryProtocolID {
			h = c.handleTelemetry
		}
		router.Register(p, meta.VehicleID, h)
		topics = append(topics, p.Topic(meta.VehicleID))
	}

	tr := c.newTransport()
	cw := NewWaiter[struct{}](c.cfg.ConnectTimeout, func() (struct{}, error) {
		return struct{}{}, ErrConnectTimeout
	})

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		tr.Close()
		return ErrSessionClosed
	}
	c.transport = tr
	c.registration = reg
	c.metadata = &meta
	c.topics = topics
	c.router = router
	c.connectWaiter = cw
	c.setStateLocked(AwaitingConnectAck)
	c.mu.Unlock()

	go c.consumeEvents(gen, tr)

	if err := tr.Open(host, Credentials{ClientID: reg.ClientID, Username: reg.ClientID, Password: token}); err != nil {
		return &ConnectionRejectedError{Cause: err}
	}
	if _, err := cw.Await(ctx); err != nil {
		return err
	}

	tk := NewTracker(topics, c.cfg.SubscribeTimeout)
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	c.tracker = tk
	c.setStateLocked(SubscribingTopics)
	c.mu.Unlock()

	if err := tr.Subscribe(topics); err != nil {
		return &SubscriptionError{Topics: topics, Cause: err}
	}
	if err := tk.Wait(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	c.setStateLocked(VerifyingOnline)
	c.mu.Unlock()

	state, err := c.boot.ConnectionState(ctx, reg.ClientID)
	if err != nil {
		return err
	}
	if state.State != model.StateOnline {
		return &NotOnlineError{State: state.State}
	}

	// The state check is a suspension point too: a Disconnect arriving while
	// it was in flight has already torn the session down and must win.
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	c.setStateLocked(Connected)
	c.mu.Unlock()
	return nil
}

// selectMetadata picks the entry for the session's vehicle. At least one
// protocol must be available to proceed.
func selectMetadata(metas []model.VehicleMetadata, vehicleID string) (model.VehicleMetadata, error) {
	for _, m := range metas {
		if m.VehicleID == vehicleID && len(m.Protocols) > 0 {
			return m, nil
		}
	}
	return model.VehicleMetadata{}, &BootstrapError{
		Step:  StepMetadata,
		Cause: fmt.Errorf("no protocols available for vehicle %s", vehicleID),
	}
}

// Disconnect tears down the broker link and clears session data. It is
// idempotent, safe to call from Idle, and resolves any still-pending waiter
// so no caller is left waiting forever.
func (c *Coordinator) Disconnect() {
	c.mu.Lock()
	c.gen++
	tr, cw, tk := c.clearSessionLocked()
	switch c.state {
	case Idle, Disconnected, Failed:
	default:
		c.setStateLocked(Disconnected)
	}
	c.mu.Unlock()

	if cw != nil {
		cw.Cancel(ErrSessionClosed)
	}
	if tk != nil {
		tk.Cancel(ErrSessionClosed)
	}
	if tr != nil {
		tr.Close()
	}
}

// fail performs the Disconnect teardown but lands in Failed with the cause.
// It is a no-op if another teardown already superseded this activation.
func (c *Coordinator) fail(gen uint64, cause error) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.gen++
	tr, cw, tk := c.clearSessionLocked()
	c.lastErr = cause
	c.setStateLocked(Failed)
	c.mu.Unlock()

	if cw != nil {
		cw.Cancel(ErrSessionClosed)
	}
	if tk != nil {
		tk.Cancel(ErrSessionClosed)
	}
	if tr != nil {
		tr.Close()
	}
}

// clearSessionLocked drops all per-activation data so identifiers from one
// attempt are never replayed against a new broker connection.
func (c *Coordinator) clearSessionLocked() (Transport, *Waiter[struct{}], *Tracker) {
	tr := c.transport
	cw := c.connectWaiter
	tk := c.tracker
	c.transport = nil
	c.connectWaiter = nil
	c.tracker = nil
	c.registration = model.DeviceRegistration{}
	c.metadata = nil
	c.topics = nil
	c.router = nil
	return tr, cw, tk
}

// consumeEvents is the single goroutine through which every transport
// callback reaches shared state. It exits when the transport closes its
// stream or the activation it belongs to is superseded.
func (c *Coordinator) consumeEvents(gen uint64, tr Transport) {
	for ev := range tr.Events() {
		c.mu.Lock()
		stale := c.gen != gen
		c.mu.Unlock()
		if stale {
			return
		}
		switch e := ev.(type) {
		case ConnectAck:
			c.onConnectAck(gen, e)
		case SubAck:
			c.onSubAck(gen, e)
		case InboundMessage:
			c.onMessage(gen, e)
		case ConnectionLost:
			c.onConnectionLost(gen, e)
		}
	}
}

func (c *Coordinator) onConnectAck(gen uint64, ack ConnectAck) {
	c.mu.Lock()
	cw := c.connectWaiter
	current := c.gen == gen
	c.mu.Unlock()
	if cw == nil || !current {
		return
	}
	switch {
	case ack.Err == nil && ack.Code == 0:
		cw.Resolve(struct{}{}, nil)
	default:
		cw.Cancel(&ConnectionRejectedError{Code: ack.Code, Cause: ack.Err})
	}
}

func (c *Coordinator) onSubAck(gen uint64, ack SubAck) {
	c.mu.Lock()
	tk := c.tracker
	current := c.gen == gen
	c.mu.Unlock()
	if tk == nil || !current {
		return
	}
	tk.Ack(ack.Results)
}

func (c *Coordinator) onMessage(gen uint64, msg InboundMessage) {
	c.mu.Lock()
	router := c.router
	current := c.gen == gen
	c.mu.Unlock()
	if router == nil || !current {
		return
	}
	router.Route(msg.Topic, msg.Payload)
}

func (c *Coordinator) onConnectionLost(gen uint64, lost ConnectionLost) {
	cause := &DisconnectError{Cause: lost.Cause}
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	if c.state == Connected {
		c.gen++
		tr, _, _ := c.clearSessionLocked()
		c.lastErr = cause
		c.setStateLocked(Disconnected)
		c.mu.Unlock()
		c.log.Errorf("broker link lost: %v", lost.Cause)
		if c.bus != nil {
			c.bus.Publish(events.ErrorEvent{Stage: "connection", Err: cause})
		}
		if tr != nil {
			tr.Close()
		}
		return
	}
	// Mid-activation: resolve whichever waiter is outstanding with the cause
	// so the activation call fails instead of hanging.
	cw := c.connectWaiter
	tk := c.tracker
	c.mu.Unlock()
	if cw != nil {
		cw.Cancel(cause)
	}
	if tk != nil {
		tk.Cancel(cause)
	}
}

// handleTelemetry decodes telemetry payloads and forwards snapshots. Decode
// failures are observability-only: logged, counted, dropped.
func (c *Coordinator) handleTelemetry(topic string, payload []byte) {
	snap, err := c.decoder.Decode(payload)
	if err != nil {
		c.log.Errorf("telemetry decode failed on %s: %v", topic, err)
		if rerr := c.sink.RecordDecodeFailure(topic); rerr != nil {
			c.log.Errorf("record decode failure: %v", rerr)
		}
		if c.bus != nil {
			c.bus.Publish(events.ErrorEvent{Stage: "decode", Err: err})
		}
		return
	}
	if err := c.sink.RecordSnapshot(snap.VehicleID); err != nil {
		c.log.Errorf("record snapshot: %v", err)
	}
	if c.bus != nil {
		c.bus.Publish(events.SnapshotEvent{Snapshot: snap})
	}
	if c.onSnapshot != nil {
		c.onSnapshot(snap)
	}
}

// setStateLocked advances the state machine and emits the transition to the
// logger, metrics sink and event bus. Callers hold c.mu.
func (c *Coordinator) setStateLocked(to State) {
	if c.state == to {
		return
	}
	from := c.state
	c.state = to
	c.log.Infof("session state %s -> %s", from, to)
	if err := c.sink.RecordStateTransition(metrics.StateTransition{From: from.String(), To: to.String()}); err != nil {
		c.log.Errorf("record state transition: %v", err)
	}
	if c.bus != nil {
		c.bus.Publish(events.StateEvent{From: from.String(), To: to.String()})
	}
}

func (c *Coordinator) recordActivation(outcome string, d time.Duration) {
	if err := c.sink.RecordActivation(metrics.ActivationResult{Outcome: outcome, Duration: d}); err != nil {
		c.log.Errorf("record activation: %v", err)
	}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
