// Package infra contains technical adapters such as the bootstrap HTTP
// client, the MQTT broker transport and metrics exporters. These packages
// should depend only on the interfaces defined in the core packages.
package infra
