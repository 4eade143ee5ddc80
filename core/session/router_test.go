package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voltpath/vlink/core/model"
)

func TestRouterRoutesRegisteredTopic(t *testing.T) {
	r := NewRouter(nopLogger{})
	var got string
	r.Register(model.ProtocolDescriptor{ID: "status", TopicName: "telemetry"}, "v-1",
		func(topic string, payload []byte) { got = string(payload) })

	r.Route("telemetry/v-1", []byte("payload"))
	assert.Equal(t, "payload", got)
}

func TestRouterIgnoresUnmatchedTopic(t *testing.T) {
	r := NewRouter(nopLogger{})
	called := false
	r.Register(model.ProtocolDescriptor{ID: "status", TopicName: "telemetry"}, "v-1",
		func(string, []byte) { called = true })

	r.Route("telemetry/v-2", []byte("payload"))
	r.Route("unrelated", []byte("payload"))
	assert.False(t, called)
}

func TestRouterNilHandlerAccepted(t *testing.T) {
	r := NewRouter(nopLogger{})
	r.Register(model.ProtocolDescriptor{ID: "connection", TopicName: "connection"}, "v-1", nil)
	// Must not panic.
	r.Route("connection/v-1", []byte("payload"))
}

func TestRouterRegistryIsOpen(t *testing.T) {
	r := NewRouter(nopLogger{})
	// Protocols beyond the well-known pair are first-class registry entries.
	var hits int
	r.Register(model.ProtocolDescriptor{ID: "battery-health", TopicName: "battery"}, "v-1",
		func(string, []byte) { hits++ })
	r.Route("battery/v-1", nil)
	assert.Equal(t, 1, hits)

	r.Deregister(model.ProtocolDescriptor{ID: "battery-health", TopicName: "battery"}, "v-1")
	r.Route("battery/v-1", nil)
	assert.Equal(t, 1, hits)
}

func TestRouterTopics(t *testing.T) {
	r := NewRouter(nopLogger{})
	r.Register(model.ProtocolDescriptor{ID: "a", TopicName: "telemetry"}, "v-1", nil)
	r.Register(model.ProtocolDescriptor{ID: "b", TopicName: "connection"}, "v-1", nil)
	assert.Equal(t, []string{"connection/v-1", "telemetry/v-1"}, r.Topics())
}
