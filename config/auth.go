package config

import (
	"fmt"

	"github.com/voltpath/vlink/auth"
)

// AuthConfig selects the token source for the telemetry backend. A static
// token short-circuits the OAuth2 client-credentials flow, which is handy for
// local brokers and probing.
type AuthConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AuthURL      string `json:"auth_url"`
	StaticToken  string `json:"static_token"`
}

// Validate checks that exactly one usable token source is configured.
func (c AuthConfig) Validate() error {
	if c.StaticToken != "" {
		return nil
	}
	if c.ClientID == "" || c.ClientSecret == "" || c.AuthURL == "" {
		return fmt.Errorf("auth requires either static_token or client_id, client_secret and auth_url")
	}
	return nil
}

// Conf returns the OAuth2 client-credentials configuration.
func (c AuthConfig) Conf() auth.Conf {
	return auth.Conf{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		AuthURL:      c.AuthURL,
	}
}
