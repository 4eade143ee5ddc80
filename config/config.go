package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/voltpath/vlink/infra/bootstrap"
	"github.com/voltpath/vlink/infra/broker"
	"github.com/voltpath/vlink/infra/metrics"
)

type Config struct {
	Bootstrap bootstrap.Config `json:"bootstrap"`
	Auth      AuthConfig       `json:"auth"`
	Broker    broker.Config    `json:"broker"`
	Session   SessionConfig    `json:"session"`
	Metrics   metrics.Config   `json:"metrics"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("VLINK_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "vlink_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Bootstrap.SetDefaults()
	cfg.Broker.SetDefaults()
	cfg.Session.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Bootstrap.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Auth.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
