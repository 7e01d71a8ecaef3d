package emsmqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrMelker/EMS-ESP/internal/ems"
)

// MQTT payloads exchanged by the bridge.

// RawFrame carries one bus frame as hex, checksum removed.
// Topics: {prefix}/raw/rx and {prefix}/raw/tx
type RawFrame struct {
	Frame string `json:"frame"`
}

// NewRawFrame renders a telegram as "0B 10 3D 02 2C".
func NewRawFrame(t ems.Telegram) RawFrame {
	return RawFrame{Frame: fmt.Sprintf("% X", t.Bytes())}
}

// CommandMessage asks the bridge to write one field of one device.
// Topic: {prefix}/command/{address}
//
// The target message is named either by Message ("RC35Set", "RC35Set_hc2")
// or by Type ("0x3D"). Value is a JSON number for integers and temperatures,
// a string for modes and a bool for flags.
type CommandMessage struct {
	// ID correlates the acknowledgement; one is generated when empty.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`

	// Device is the bus address, used when the topic carries none.
	Device string `json:"device,omitempty"`

	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Circuit uint8  `json:"circuit,omitempty"`

	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`

	// Source indicates where the command originated.
	Source string `json:"source,omitempty"`
}

// AckStatus represents the acknowledgment status of a command.
type AckStatus string

const (
	// AckAccepted indicates the write telegram was handed to the transport.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command was rejected or could not be sent.
	AckFailed AckStatus = "failed"
)

// AckMessage reports the outcome of a command.
// Topic: {prefix}/ack/{id}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	Status    AckStatus `json:"status"`
	Address   string    `json:"address,omitempty"`
	Message   string    `json:"message,omitempty"`
	Field     string    `json:"field,omitempty"`

	// Frame is the write telegram sent, for accepted commands.
	Frame string `json:"frame,omitempty"`

	Error *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for command failures.
const (
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeUnknownDevice     = "UNKNOWN_DEVICE"
	ErrCodeUnknownMessage    = "UNKNOWN_MESSAGE"
	ErrCodeUnknownField      = "UNKNOWN_FIELD"
	ErrCodeTypeMismatch      = "TYPE_MISMATCH"
	ErrCodeInvalidEnumValue  = "INVALID_ENUM_VALUE"
	ErrCodeValueOutOfRange   = "VALUE_OUT_OF_RANGE"
	ErrCodeWriteNotSupported = "WRITE_NOT_SUPPORTED"
	ErrCodeReadOnly          = "READ_ONLY"
	ErrCodeFamilyMismatch    = "FAMILY_MISMATCH"
	ErrCodeValueUnknown      = "VALUE_UNKNOWN"
	ErrCodeBridgeError       = "BRIDGE_ERROR"
)

// StateMessage carries the latest known readings of one message of one device.
// Topic: {prefix}/state/{address}/{message}
// QoS: configured, Retained: Yes
type StateMessage struct {
	Address   string               `json:"address"`
	Device    string               `json:"device"`
	Message   string               `json:"message"`
	Type      string               `json:"type"`
	Timestamp time.Time            `json:"timestamp"`
	State     map[string]ems.Value `json:"state"`
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports operational status.
// Topic: {prefix}/health
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Bridge        string            `json:"bridge"`
	Timestamp     time.Time         `json:"timestamp"`
	Status        HealthStatus      `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Statistics    *BridgeStatistics `json:"statistics,omitempty"`

	// DevicesKnown is the number of devices learned from Version telegrams.
	DevicesKnown int `json:"devices_known"`

	// LastFrame is when the transport last delivered a frame.
	LastFrame *time.Time `json:"last_frame,omitempty"`

	Reason string `json:"reason,omitempty"`
}

// BridgeStatistics contains operational counters.
type BridgeStatistics struct {
	TelegramsReceived uint64 `json:"telegrams_received"`
	TelegramsDecoded  uint64 `json:"telegrams_decoded"`
	CommandsSent      uint64 `json:"commands_sent"`
	Errors            uint64 `json:"errors"`
}

// DiscoveryMessage lists the devices learned on the bus.
// Topic: {prefix}/discovery
// QoS: 1, Retained: Yes
type DiscoveryMessage struct {
	Timestamp time.Time       `json:"timestamp"`
	Bridge    string          `json:"bridge"`
	Devices   []LearnedDevice `json:"devices"`
}

// MarshalJSON writes the timestamp as RFC 3339 in UTC.
func (m *CommandMessage) MarshalJSON() ([]byte, error) {
	type Alias CommandMessage
	return json.Marshal(&struct {
		*Alias
		Timestamp string `json:"timestamp,omitempty"`
	}{
		Alias:     (*Alias)(m),
		Timestamp: formatTimestamp(m.Timestamp),
	})
}

// UnmarshalJSON accepts an empty or missing timestamp.
func (m *CommandMessage) UnmarshalJSON(data []byte) error {
	type Alias CommandMessage
	aux := &struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias: (*Alias)(m),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return fmt.Errorf("unmarshal command message: %w", err)
	}
	if aux.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, aux.Timestamp)
		if err != nil {
			return fmt.Errorf("parse timestamp: %w", err)
		}
		m.Timestamp = t
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// NewAckMessage creates an accepted acknowledgment for a command.
func NewAckMessage(cmd CommandMessage, address, message, frame string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Status:    AckAccepted,
		Address:   address,
		Message:   message,
		Field:     cmd.Field,
		Frame:     frame,
	}
}

// NewAckError creates an acknowledgment with error details.
func NewAckError(cmd CommandMessage, address, code, message string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Status:    AckFailed,
		Address:   address,
		Message:   cmd.Message,
		Field:     cmd.Field,
		Error: &AckError{
			Code:    code,
			Message: message,
		},
	}
}

// NewStateMessage creates a state message for one decoded message.
func NewStateMessage(addr ems.Address, dev ems.DeviceDescriptor, msg *ems.MessageDescriptor, state map[string]ems.Value) StateMessage {
	return StateMessage{
		Address:   addr.String(),
		Device:    dev.Name,
		Message:   msg.Key(),
		Type:      msg.TypeID.String(),
		Timestamp: time.Now().UTC(),
		State:     state,
	}
}

// NewHealthMessage creates a health status message.
func NewHealthMessage(bridgeID, version string, status HealthStatus, stats BridgeStatistics, devices int, startTime, lastFrame time.Time) HealthMessage {
	msg := HealthMessage{
		Bridge:        bridgeID,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Statistics:    &stats,
		DevicesKnown:  devices,
	}
	if !lastFrame.IsZero() {
		lf := lastFrame.UTC()
		msg.LastFrame = &lf
	}
	return msg
}
