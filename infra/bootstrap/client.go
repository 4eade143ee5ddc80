package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voltpath/vlink/core/model"
	"github.com/voltpath/vlink/core/session"
	"github.com/voltpath/vlink/infra/logger"
)

// Config defines the connection parameters for the bootstrap backend.
type Config struct {
	// BaseURL is the root of the device gateway API.
	BaseURL string `json:"base_url"`
	// UnitType identifies the consumer client type in device registration.
	UnitType string `json:"unit_type"`
	// TimeoutSeconds bounds each individual HTTP call.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.UnitType == "" {
		c.UnitType = "consumer-app"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	return nil
}

// Client performs the sequential HTTP bootstrap against the device gateway:
// host discovery, device registration, vehicle metadata lookup and protocol
// subscription, plus the post-subscribe connection state check. No step
// retries internally; the first failure aborts the sequence.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens session.TokenProvider
	log    logger.Logger
}

// NewClient creates a bootstrap Client.
func NewClient(cfg Config, tokens session.TokenProvider) *Client {
	cfg.SetDefaults()
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		tokens: tokens,
		log:    logger.New("bootstrap"),
	}
}

// DiscoverHost fetches the broker endpoint for this session.
func (c *Client) DiscoverHost(ctx context.Context) (model.HostInfo, error) {
	var host model.HostInfo
	if err := c.doJSON(ctx, http.MethodGet, "/devices/host", nil, &host); err != nil {
		return model.HostInfo{}, &session.BootstrapError{Step: session.StepHost, Cause: err}
	}
	return host, nil
}

// RegisterDevice registers this client with a fresh correlation UUID and
// returns the identifiers the broker session will use.
func (c *Client) RegisterDevice(ctx context.Context) (model.DeviceRegistration, error) {
	correlationID := uuid.NewString()
	body := struct {
		UnitType      string `json:"unitType"`
		CorrelationID string `json:"correlationId"`
	}{UnitType: c.cfg.UnitType, CorrelationID: correlationID}

	var reg model.DeviceRegistration
	if err := c.doJSON(ctx, http.MethodPost, "/devices", body, &reg); err != nil {
		return model.DeviceRegistration{}, &session.BootstrapError{Step: session.StepRegister, Cause: err}
	}
	reg.CorrelationID = correlationID
	c.log.Debugw("device registered", map[string]any{"client_id": reg.ClientID, "device_id": reg.DeviceID})
	return reg, nil
}

// FetchVehicleMetadata lists the protocols available for the vehicle. An
// empty list is a metadata-step failure.
func (c *Client) FetchVehicleMetadata(ctx context.Context, vehicleID, clientID string) ([]model.VehicleMetadata, error) {
	path := fmt.Sprintf("/vehicles/%s/metadata?clientId=%s", url.PathEscape(vehicleID), url.QueryEscape(clientID))
	var metas []model.VehicleMetadata
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &metas); err != nil {
		return nil, &session.BootstrapError{Step: session.StepMetadata, Cause: err}
	}
	if len(metas) == 0 {
		return nil, &session.BootstrapError{
			Step:  session.StepMetadata,
			Cause: fmt.Errorf("no metadata returned for vehicle %s", vehicleID),
		}
	}
	return metas, nil
}

// SubscribeProtocols tells the backend which protocols the broker session
// will carry. It must succeed before the broker-level subscribe is attempted.
func (c *Client) SubscribeProtocols(ctx context.Context, vehicleID, clientID string, protocols []model.ProtocolDescriptor) error {
	ids := make([]string, 0, len(protocols))
	for _, p := range protocols {
		ids = append(ids, p.ID)
	}
	body := struct {
		Protocols []string `json:"protocols"`
		VehicleID string   `json:"vehicleId"`
		ClientID  string   `json:"clientId"`
	}{Protocols: ids, VehicleID: vehicleID, ClientID: clientID}

	if err := c.doJSON(ctx, http.MethodPost, "/protocols/subscribe", body, nil); err != nil {
		return &session.BootstrapError{Step: session.StepProtocolSubscribe, Cause: err}
	}
	return nil
}

// ConnectionState checks the remote-reported state of the broker session.
func (c *Client) ConnectionState(ctx context.Context, clientID string) (model.ConnectionState, error) {
	path := fmt.Sprintf("/connections/%s/state", url.PathEscape(clientID))
	var state model.ConnectionState
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &state); err != nil {
		return model.ConnectionState{}, fmt.Errorf("connection state: %w", err)
	}
	return state, nil
}

// doJSON performs one authorized call. out may be nil for calls where only
// the success status matters.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	token, err := c.tokens.CurrentAccessToken()
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrMissingAuthorization, err)
	}
	if token == "" {
		return session.ErrMissingAuthorization
	}

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Errorf("close response body: %v", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
