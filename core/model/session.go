package model

import "fmt"

// HostInfo describes the broker endpoint discovered during bootstrap. It is
// produced once per activation attempt and never mutated afterwards.
type HostInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	SSL  bool   `json:"ssl"`
}

// BrokerURL returns the paho-style broker URL for the endpoint.
func (h HostInfo) BrokerURL() string {
	scheme := "tcp"
	if h.SSL {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, h.Host, h.Port)
}

// DeviceRegistration holds the identifiers assigned by the backend in
// bootstrap step two. The client identifier doubles as the broker username.
type DeviceRegistration struct {
	ClientID string `json:"clientId"`
	DeviceID string `json:"deviceId"`
	// CorrelationID is the UUID generated for the registration request.
	CorrelationID string `json:"-"`
}

// ProtocolDescriptor identifies a category of vehicle data and the topic
// naming convention it uses on the broker.
type ProtocolDescriptor struct {
	ID        string `json:"protocolId"`
	TopicName string `json:"topicName"`
}

// Topic derives the broker topic for the given vehicle following the
// {topicName}/{vehicleID} convention.
func (p ProtocolDescriptor) Topic(vehicleID string) string {
	return p.TopicName + "/" + vehicleID
}

// VehicleMetadata lists the protocols a vehicle supports.
type VehicleMetadata struct {
	VehicleID string               `json:"vehicleId"`
	Protocols []ProtocolDescriptor `json:"protocols"`
}

// ConnectionState is the remote-reported state of the broker session, checked
// after subscribing. Only StateOnline allows the session to go live.
type ConnectionState struct {
	State           string `json:"state"`
	ProtocolVersion string `json:"protocolVersion"`
}

// StateOnline is the only remote connection state accepted as healthy.
const StateOnline = "ONLINE"

// Well-known protocol identifiers. The router is not limited to these; they
// exist so callers can register handlers without repeating string literals.
const (
	ProtocolVehicleStatusSync = "vehicle-status-sync"
	ProtocolConnectionState   = "connection-state"
)
