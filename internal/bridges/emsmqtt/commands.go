package emsmqtt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/MrMelker/EMS-ESP/internal/ems"
)

// readBackLength is the size of the read request sent after a write so the
// device reports the new value.
const readBackLength = 0x20

// handleCommandMessage processes a command published on {prefix}/command/{address}.
func (b *Bridge) handleCommandMessage(topic string, payload []byte) {
	if b.stopped() {
		return
	}

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		if cmd.ID == "" {
			cmd.ID = uuid.NewString()
		}
		b.rejectCommand(cmd, "", fmt.Errorf("%w: %v", ErrInvalidCommand, err))
		return
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}

	address := cmd.Device
	if fromTopic, err := b.topics.ParseCommandAddress(topic); err == nil {
		address = fromTopic
	}

	frame, msg, err := b.executeCommand(address, cmd)
	if err != nil {
		b.rejectCommand(cmd, address, err)
		return
	}

	b.metrics.commandHandled(string(AckAccepted))
	b.logInfo("command sent",
		"command_id", cmd.ID,
		"address", address,
		"message", msg.Key(),
		"field", cmd.Field,
		"frame", frame)
	b.publishAck(NewAckMessage(cmd, address, msg.Key(), frame))
}

// executeCommand resolves, encodes and sends one command. It returns the
// hex frame handed to the transport.
func (b *Bridge) executeCommand(address string, cmd CommandMessage) (string, *ems.MessageDescriptor, error) {
	if address == "" {
		return "", nil, fmt.Errorf("%w: no device address", ErrInvalidCommand)
	}
	if cmd.Field == "" {
		return "", nil, fmt.Errorf("%w: field is required", ErrInvalidCommand)
	}

	addr, err := ems.ParseAddress(address)
	if err != nil {
		return "", nil, err
	}
	learned, ok := b.devices.Get(addr)
	if !ok {
		return "", nil, fmt.Errorf("%w: nothing learned at %s", ems.ErrUnknownDevice, addr)
	}
	dev := learned.Descriptor
	if !dev.Capabilities.Writable {
		return "", nil, fmt.Errorf("%w: %s", ems.ErrWriteNotSupported, dev.Name)
	}

	msg, err := resolveCommandMessage(dev, cmd)
	if err != nil {
		return "", nil, err
	}
	if !msg.Writable() {
		return "", msg, fmt.Errorf("%w: %s", ErrReadOnlyMessage, msg.Key())
	}
	if msg.Family != ems.FamilyNone && msg.Family != dev.Capabilities.Family {
		return "", msg, fmt.Errorf("%w: %s is %s, %s is %s",
			ErrFamilyMismatch, msg.Key(), msg.Family, dev.Name, dev.Capabilities.Family)
	}

	value, err := commandValue(msg, cmd.Field, cmd.Value)
	if err != nil {
		return "", msg, err
	}

	patch, err := ems.Encode(dev, msg, cmd.Field, value)
	if err != nil {
		return "", msg, err
	}
	if patch.Mask != 0xFF {
		if patch, err = b.mergeBitPatch(addr, patch); err != nil {
			return "", msg, err
		}
	}

	t, err := patch.Telegram(b.busAddr, addr)
	if err != nil {
		return "", msg, err
	}
	raw := NewRawFrame(t)
	if err := b.sendTelegram(t); err != nil {
		return "", msg, fmt.Errorf("send write: %w", err)
	}

	readBack := ems.ReadRequest(addr, msg, 0, readBackLength)
	readBack.Source = b.busAddr
	if err := b.sendTelegram(readBack); err != nil {
		b.logError("failed to request read-back", err)
	}

	return raw.Frame, msg, nil
}

// mergeBitPatch turns a bit patch into a whole-byte patch using the byte
// last seen on the bus.
func (b *Bridge) mergeBitPatch(addr ems.Address, p ems.Patch) (ems.Patch, error) {
	img, ok := b.currentBytes(addr, p.Type, p.Offset, len(p.Data))
	if !ok {
		return ems.Patch{}, fmt.Errorf("%w: %s offset %d", ErrCurrentValueUnknown, p.Type, p.Offset)
	}
	if err := p.Apply(img); err != nil {
		return ems.Patch{}, err
	}
	end := int(p.Offset) + len(p.Data)
	return ems.Patch{
		Type:     p.Type,
		Offset:   p.Offset,
		Data:     img[p.Offset:end],
		Mask:     0xFF,
		Extended: p.Extended,
	}, nil
}

// resolveCommandMessage finds the message a command targets, by name or by
// type id ("0x3D", "61").
func resolveCommandMessage(dev ems.DeviceDescriptor, cmd CommandMessage) (*ems.MessageDescriptor, error) {
	switch {
	case cmd.Message != "":
		msg, ok := ems.LookupMessage(dev.Type, cmd.Message, cmd.Circuit)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no message %q", ems.ErrUnknownTelegramType, dev.Type, cmd.Message)
		}
		return msg, nil

	case cmd.Type != "":
		id, err := strconv.ParseUint(strings.TrimSpace(cmd.Type), 0, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: type %q", ErrInvalidCommand, cmd.Type)
		}
		msg, ok := ems.ResolveMessage(dev.Type, ems.TypeID(id))
		if !ok {
			return nil, fmt.Errorf("%w: %s has no type %s", ems.ErrUnknownTelegramType, dev.Type, ems.TypeID(id))
		}
		return msg, nil

	default:
		return nil, fmt.Errorf("%w: message or type is required", ErrInvalidCommand)
	}
}

// commandValue converts a JSON value to the value the field expects: bools
// become flags, strings modes and numbers temperatures or integers.
// Combinations the field cannot take are left for Encode to reject.
func commandValue(msg *ems.MessageDescriptor, field string, raw json.RawMessage) (ems.Value, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: value is required", ErrUnsupportedValue)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}

	f, _ := msg.Field(field)
	switch x := v.(type) {
	case bool:
		return ems.Flag(x), nil
	case string:
		return ems.ModeNamed(x), nil
	case json.Number:
		if f.Kind() == ems.KindTemperature {
			c, err := x.Float64()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
			}
			return ems.Celsius(c), nil
		}
		n, err := x.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not an integer", ErrUnsupportedValue, x)
		}
		return ems.Integer(n), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func (b *Bridge) rejectCommand(cmd CommandMessage, address string, err error) {
	code := errorCode(err)
	b.metrics.commandHandled(code)
	b.logWarn("command rejected",
		"command_id", cmd.ID,
		"address", address,
		"code", code,
		"error", err)
	b.publishAck(NewAckError(cmd, address, code, err.Error()))
}

func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.Ack(ack.CommandID), payload, 1, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}
