package config

import (
	"fmt"
	"time"

	"github.com/voltpath/vlink/core/session"
)

// SessionConfig carries the per-vehicle settings of the session coordinator.
type SessionConfig struct {
	VehicleID string `json:"vehicle_id"`
	// TelemetryProtocolID selects which protocol's payloads become snapshots.
	TelemetryProtocolID     string `json:"telemetry_protocol_id"`
	ConnectTimeoutSeconds   int    `json:"connect_timeout_seconds"`
	SubscribeTimeoutSeconds int    `json:"subscribe_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *SessionConfig) SetDefaults() {
	if c.ConnectTimeoutSeconds <= 0 {
		c.ConnectTimeoutSeconds = int(session.DefaultConnectTimeout / time.Second)
	}
	if c.SubscribeTimeoutSeconds <= 0 {
		c.SubscribeTimeoutSeconds = int(session.DefaultSubscribeTimeout / time.Second)
	}
}

// Validate checks mandatory fields.
func (c SessionConfig) Validate() error {
	if c.VehicleID == "" {
		return fmt.Errorf("session.vehicle_id is required")
	}
	return nil
}

// ToSession converts the section into the coordinator's native config.
func (c SessionConfig) ToSession() session.Config {
	return session.Config{
		VehicleID:           c.VehicleID,
		TelemetryProtocolID: c.TelemetryProtocolID,
		ConnectTimeout:      time.Duration(c.ConnectTimeoutSeconds) * time.Second,
		SubscribeTimeout:    time.Duration(c.SubscribeTimeoutSeconds) * time.Second,
	}
}
