package session

import (
	"sync"

	"github.com/voltpath/vlink/core/logger"
	"github.com/voltpath/vlink/core/model"
)

// Handler processes the raw payload of messages for one protocol.
type Handler func(topic string, payload []byte)

// Router demultiplexes inbound broker messages by topic. The registry is
// data-driven: protocols are registered per session with their handler, so
// supporting a new protocol needs no change to the routing code. Protocols
// registered with a nil handler are accepted and dropped; so are messages on
// topics no protocol claims.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	log      logger.Logger
}

// NewRouter creates an empty Router.
func NewRouter(log logger.Logger) *Router {
	return &Router{handlers: make(map[string]Handler), log: log}
}

// Register binds the protocol's derived topic ({topicName}/{vehicleID}) to h.
func (r *Router) Register(desc model.ProtocolDescriptor, vehicleID string, h Handler) {
	r.mu.Lock()
	r.handlers[desc.Topic(vehicleID)] = h
	r.mu.Unlock()
}

// Deregister removes the protocol's topic binding.
func (r *Router) Deregister(desc model.ProtocolDescriptor, vehicleID string) {
	r.mu.Lock()
	delete(r.handlers, desc.Topic(vehicleID))
	r.mu.Unlock()
}

// Topics returns the registered topics.
func (r *Router) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]struct{}, len(r.handlers))
	for topic := range r.handlers {
		set[topic] = struct{}{}
	}
	return sortedKeys(set)
}

// Route dispatches one inbound message to the handler registered for its
// topic, if any.
func (r *Router) Route(topic string, payload []byte) {
	r.mu.RLock()
	h, ok := r.handlers[topic]
	r.mu.RUnlock()
	if !ok {
		r.log.Debugf("message on unregistered topic %s dropped", topic)
		return
	}
	if h == nil {
		return
	}
	h(topic, payload)
}
