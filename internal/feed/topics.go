package feed

import (
	"fmt"
	"strings"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// Transport selects how the client reaches the broker.
type Transport string

const (
	TransportMQTT    Transport = "mqtt"
	TransportMQTTTLS Transport = "mqtt_tls"
	TransportWS      Transport = "ws"
	TransportWSTLS   Transport = "ws_tls"
)

// DefaultBroker is the public PSKReporter MQTT host.
const DefaultBroker = "mqtt.pskreporter.info"

// DefaultPort returns the broker port PSKReporter uses for t, or 0 when t is unknown.
func DefaultPort(t Transport) int {
	switch t {
	case TransportMQTT:
		return 1883
	case TransportMQTTTLS:
		return 1884
	case TransportWS:
		return 1885
	case TransportWSTLS:
		return 1886
	}
	return 0
}

// Secure reports whether t runs over TLS.
func (t Transport) Secure() bool {
	return t == TransportMQTTTLS || t == TransportWSTLS
}

// BrokerURL builds the paho server URL for host and transport.
// A zero port selects DefaultPort.
func BrokerURL(t Transport, host string, port int) (string, error) {
	if host == "" {
		host = DefaultBroker
	}
	if port == 0 {
		port = DefaultPort(t)
	}
	switch t {
	case TransportMQTT:
		return fmt.Sprintf("tcp://%s:%d", host, port), nil
	case TransportMQTTTLS:
		return fmt.Sprintf("ssl://%s:%d", host, port), nil
	case TransportWS:
		return fmt.Sprintf("ws://%s:%d/mqtt", host, port), nil
	case TransportWSTLS:
		return fmt.Sprintf("wss://%s:%d/mqtt", host, port), nil
	}
	return "", fmt.Errorf("feed: unknown transport %q", t)
}

// Topics returns the topic filters for a session.
//
// The broker publishes on pskr/filter/v2/{band}/{mode}/{sender}/{receiver}/...
// Personal sessions filter on the receiver (rx), the sender (tx) or both (dual).
// Global sessions take everything. modes narrows the mode level to one filter
// per listed mode; empty means any mode.
func Topics(mode types.MonitorMode, callsign string, dir types.Direction, modes []string) []string {
	levels := []string{"+"}
	if len(modes) > 0 {
		levels = levels[:0]
		for _, m := range modes {
			if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
				levels = append(levels, m)
			}
		}
		if len(levels) == 0 {
			levels = []string{"+"}
		}
	}

	call := strings.ToUpper(strings.TrimSpace(callsign))
	var topics []string
	for _, m := range levels {
		if mode == types.ModeGlobal {
			topics = append(topics, fmt.Sprintf("pskr/filter/v2/+/%s/#", m))
			continue
		}
		if dir == types.DirectionRX || dir == types.DirectionDual {
			topics = append(topics, fmt.Sprintf("pskr/filter/v2/+/%s/+/%s/#", m, call))
		}
		if dir == types.DirectionTX || dir == types.DirectionDual {
			topics = append(topics, fmt.Sprintf("pskr/filter/v2/+/%s/%s/+/#", m, call))
		}
	}
	return topics
}
