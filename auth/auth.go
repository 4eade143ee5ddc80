package auth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// ClientCred supplies bearer tokens for the telemetry backend using the
// OAuth2 client credentials grant. It implements the session engine's
// TokenProvider port.
type ClientCred struct {
	mu    sync.Mutex
	conf  clientCredConfig
	token *oauth2.Token
}

// NewClientCred creates a ClientCred from the configuration.
func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{conf: conf.toOauth2Config()}
}

// CurrentAccessToken returns a valid access token, requesting a new one when
// the cached token expired.
func (c *ClientCred) CurrentAccessToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != nil && c.token.Valid() {
		return c.token.AccessToken, nil
	}
	if err := c.refreshLocked(); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

// ForceRefresh discards the cached token and requests a new one.
func (c *ClientCred) ForceRefresh() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

func (c *ClientCred) refreshLocked() error {
	tok, err := c.conf.Token(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return nil
}

// StaticToken is a TokenProvider returning a fixed token. Used in tests and
// by the CLI when a token is supplied directly.
type StaticToken string

// CurrentAccessToken returns the fixed token.
func (s StaticToken) CurrentAccessToken() (string, error) {
	return string(s), nil
}
