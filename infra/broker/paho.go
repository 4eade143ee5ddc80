package broker

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/voltpath/vlink/core/model"
	"github.com/voltpath/vlink/core/session"
	"github.com/voltpath/vlink/infra/logger"
)

// subFailure is the MQTT granted-QoS value marking a rejected subscription.
const subFailure = 0x80

// Config defines the client parameters for the Paho MQTT transport.
type Config struct {
	QoS                   byte   `json:"qos"`
	KeepAliveSeconds      int    `json:"keep_alive_seconds"`
	ConnectTimeoutSeconds int    `json:"connect_timeout_seconds"`
	EventBuffer           int    `json:"event_buffer"`
	CABundle              string `json:"ca_bundle"`
	Insecure              bool   `json:"insecure"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.KeepAliveSeconds <= 0 {
		c.KeepAliveSeconds = 30
	}
	if c.ConnectTimeoutSeconds <= 0 {
		c.ConnectTimeoutSeconds = 10
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 64
	}
}

// pahoClient is the subset of the Paho client used by the transport.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	SubscribeMultiple(filters map[string]byte, callback paho.MessageHandler) paho.Token
}

// subscribeToken exposes the per-topic grant results of a subscribe token.
// *paho.SubscribeToken satisfies it.
type subscribeToken interface {
	paho.Token
	Result() map[string]byte
}

var newPahoClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoTransport implements the session Transport port on Eclipse Paho. The
// library's callback surface (connect, connection lost, per-subscription,
// inbound message) is collapsed into the single tagged event stream the
// coordinator consumes. Auto-reconnect is disabled: an unexpected disconnect
// always surfaces as a ConnectionLost event.
type PahoTransport struct {
	cfg Config
	log logger.Logger

	mu     sync.Mutex
	cli    pahoClient
	closed bool
	events chan session.Event
}

// NewPahoTransport creates a transport for one activation attempt.
func NewPahoTransport(cfg Config) *PahoTransport {
	cfg.SetDefaults()
	return &PahoTransport{
		cfg:    cfg,
		log:    logger.New("broker"),
		events: make(chan session.Event, cfg.EventBuffer),
	}
}

// Events returns the tagged event stream.
func (t *PahoTransport) Events() <-chan session.Event { return t.events }

// Open starts the connection attempt. The handshake outcome is delivered as a
// ConnectAck event.
func (t *PahoTransport) Open(host model.HostInfo, creds session.Credentials) error {
	opts := paho.NewClientOptions().
		AddBroker(host.BrokerURL()).
		SetClientID(creds.ClientID).
		SetUsername(creds.Username).
		SetPassword(creds.Password).
		SetKeepAlive(time.Duration(t.cfg.KeepAliveSeconds) * time.Second).
		SetConnectTimeout(time.Duration(t.cfg.ConnectTimeoutSeconds) * time.Second).
		SetAutoReconnect(false).
		SetCleanSession(true)

	if host.SSL {
		tlsCfg, err := t.cfg.loadTLSConfig()
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.OnConnect = func(paho.Client) {
		t.emit(session.ConnectAck{})
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		t.emit(session.ConnectionLost{Cause: err})
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("transport closed")
	}
	if t.cli != nil {
		t.mu.Unlock()
		return fmt.Errorf("transport already open")
	}
	cli := newPahoClient(opts)
	t.cli = cli
	t.mu.Unlock()

	token := cli.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			t.emit(session.ConnectAck{Code: rejectionCode(err), Err: err})
		}
	}()
	return nil
}

// Subscribe requests the topics in one batch. Per-topic grant results are
// delivered as a SubAck event once the broker answers.
func (t *PahoTransport) Subscribe(topics []string) error {
	t.mu.Lock()
	cli := t.cli
	t.mu.Unlock()
	if cli == nil {
		return fmt.Errorf("transport not open")
	}
	filters := make(map[string]byte, len(topics))
	for _, topic := range topics {
		filters[topic] = t.cfg.QoS
	}
	token := cli.SubscribeMultiple(filters, t.onMessage)
	go func() {
		token.Wait()
		results := make(map[string]bool, len(topics))
		if err := token.Error(); err != nil {
			t.log.Errorf("subscribe failed: %v", err)
			for _, topic := range topics {
				results[topic] = false
			}
			t.emit(session.SubAck{Results: results})
			return
		}
		if st, ok := token.(subscribeToken); ok {
			for topic, qos := range st.Result() {
				results[topic] = qos != subFailure
			}
		} else {
			for _, topic := range topics {
				results[topic] = true
			}
		}
		t.emit(session.SubAck{Results: results})
	}()
	return nil
}

func (t *PahoTransport) onMessage(_ paho.Client, msg paho.Message) {
	t.emit(session.InboundMessage{Topic: msg.Topic(), Payload: msg.Payload()})
}

// Close tears down the link and closes the event stream. Safe to call
// multiple times and on a link that never connected.
func (t *PahoTransport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	cli := t.cli
	t.cli = nil
	t.mu.Unlock()

	if cli != nil && cli.IsConnected() {
		cli.Disconnect(250)
	}
	close(t.events)
}

// emit delivers an event unless the transport closed. Delivery is
// non-blocking; the buffer is sized so drops only happen under pathological
// message rates.
func (t *PahoTransport) emit(ev session.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.events <- ev:
	default:
		t.log.Warnf("event buffer full, dropping %T", ev)
	}
}

// rejectionCode maps a Paho connect error back to the MQTT CONNACK code, if
// it carries one.
func rejectionCode(err error) byte {
	for code, cerr := range packets.ConnErrors {
		if code == 0 {
			continue
		}
		if errors.Is(err, cerr) {
			return code
		}
	}
	return 0
}

// loadTLSConfig builds the TLS configuration for SSL broker endpoints.
func (c Config) loadTLSConfig() (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.Insecure {
		cfg.InsecureSkipVerify = true
	}
	if c.CABundle != "" {
		caBytes, err := os.ReadFile(c.CABundle)
		if err != nil {
			return nil, fmt.Errorf("read ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, fmt.Errorf("no certificates parsed from %s", c.CABundle)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}
