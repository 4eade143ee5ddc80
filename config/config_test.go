package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `bootstrap:
  base_url: "https://api.example.com"
  unit_type: "EV"
auth:
  client_id: "svc"
  client_secret: "secret"
  auth_url: "https://auth.example.com/token"
broker:
  qos: 1
  keep_alive_seconds: 30
  insecure: true
session:
  vehicle_id: "v-1"
  connect_timeout_seconds: 15
metrics:
  prometheus_enabled: true
  prometheus_addr: ":9095"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"bootstrap.base_url", cfg.Bootstrap.BaseURL, "https://api.example.com"},
		{"bootstrap.unit_type", cfg.Bootstrap.UnitType, "EV"},
		{"auth.client_id", cfg.Auth.ClientID, "svc"},
		{"broker.qos", cfg.Broker.QoS, byte(1)},
		{"broker.keep_alive_seconds", cfg.Broker.KeepAliveSeconds, 30},
		{"broker.insecure", cfg.Broker.Insecure, true},
		{"session.vehicle_id", cfg.Session.VehicleID, "v-1"},
		{"session.connect_timeout_seconds", cfg.Session.ConnectTimeoutSeconds, 15},
		{"session.subscribe_timeout_seconds", cfg.Session.SubscribeTimeoutSeconds, 5},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":9095"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoadValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `bootstrap:
  base_url: "https://api.example.com"
auth:
  client_id: "svc"
session:
  vehicle_id: "v-1"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected auth validation error")
	}
}

func TestAuthConfigStaticToken(t *testing.T) {
	c := AuthConfig{StaticToken: "tok"}
	if err := c.Validate(); err != nil {
		t.Fatalf("static token should satisfy validation: %v", err)
	}
}
