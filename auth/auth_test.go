package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCurrentAccessToken(t *testing.T) {
	// Simple OAuth2 token endpoint returning a static token
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"access_token":"token123","token_type":"bearer","expires_in":3600}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	cfg := Conf{ClientID: "id", ClientSecret: "secret", AuthURL: server.URL}
	provider := NewClientCred(cfg)

	token, err := provider.CurrentAccessToken()
	if err != nil {
		t.Fatalf("CurrentAccessToken returned error: %v", err)
	}
	if token != "token123" {
		t.Fatalf("unexpected token %s", token)
	}

	// Second call serves the cached token.
	token, err = provider.CurrentAccessToken()
	if err != nil {
		t.Fatalf("cached CurrentAccessToken returned error: %v", err)
	}
	if token != "token123" {
		t.Fatalf("unexpected cached token %s", token)
	}
}

func TestCurrentAccessTokenError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", AuthURL: server.URL})
	if _, err := provider.CurrentAccessToken(); err == nil {
		t.Fatalf("expected error from failing token endpoint")
	}
}

func TestStaticToken(t *testing.T) {
	token, err := StaticToken("abc").CurrentAccessToken()
	if err != nil {
		t.Fatalf("StaticToken returned error: %v", err)
	}
	if token != "abc" {
		t.Fatalf("unexpected token %s", token)
	}
}
