package mqtt

import (
	"fmt"
	"strings"
)

// DefaultPrefix is the topic root used when none is configured.
const DefaultPrefix = "ems"

// Topics builds the gateway's MQTT topics below a configurable prefix.
//
//	topics := mqtt.NewTopics("ems")
//	topics.State("0x10", "RC35StatusMessage_hc1")
//	// Returns: "ems/state/0x10/RC35StatusMessage_hc1"
type Topics struct {
	Prefix string
}

// NewTopics returns builders for prefix, falling back to DefaultPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) join(parts ...string) string {
	return t.Prefix + "/" + strings.Join(parts, "/")
}

// RawRx carries framed telegrams received from the bus by the transport.
//
// Example: ems/raw/rx
func (t Topics) RawRx() string { return t.join("raw", "rx") }

// RawTx carries frames the transport should send on the bus.
//
// Example: ems/raw/tx
func (t Topics) RawTx() string { return t.join("raw", "tx") }

// State returns the retained state topic of one message of one device.
//
// Example: ems/state/0x08/UBAMonitorFast
func (t Topics) State(address, message string) string {
	return t.join("state", address, message)
}

// Command returns the command topic for a device.
//
// Example: ems/command/0x10
func (t Topics) Command(address string) string {
	return t.join("command", address)
}

// Ack returns the acknowledgement topic for a command id.
//
// Example: ems/ack/3f2c...
func (t Topics) Ack(commandID string) string {
	return t.join("ack", commandID)
}

// Health returns the gateway health topic.
func (t Topics) Health() string { return t.join("health") }

// Discovery returns the topic listing devices learned on the bus.
func (t Topics) Discovery() string { return t.join("discovery") }

// Status returns the online/offline status topic used for the LWT.
func (t Topics) Status() string { return t.join("status") }

// AllCommands matches every command topic.
func (t Topics) AllCommands() string { return t.join("command", "#") }

// AllStates matches every state topic.
func (t Topics) AllStates() string { return t.join("state", "#") }

// ParseCommandAddress extracts the device address segment from a command topic.
func (t Topics) ParseCommandAddress(topic string) (string, error) {
	rest, ok := strings.CutPrefix(topic, t.join("command")+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", fmt.Errorf("%w: %q is not a command topic", ErrInvalidTopic, topic)
	}
	return rest, nil
}
