package ems

import (
	"encoding/binary"
	"fmt"
)

// Reading is one decoded field.
type Reading struct {
	Field string
	Value Value
}

// FieldError records a field that could not be decoded.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Decoded is the result of decoding one payload against a message layout.
type Decoded struct {
	Message *MessageDescriptor

	// Readings holds the decodable fields in declaration order.
	Readings []Reading

	// Warnings lists fields omitted because the payload was too short.
	Warnings []*FieldError
}

// Get returns the value of a decoded field.
func (d Decoded) Get(name string) (Value, bool) {
	for _, r := range d.Readings {
		if r.Field == name {
			return r.Value, true
		}
	}
	return nil, false
}

// Map returns the readings keyed by field name.
func (d Decoded) Map() map[string]Value {
	out := make(map[string]Value, len(d.Readings))
	for _, r := range d.Readings {
		out[r.Field] = r.Value
	}
	return out
}

// Decode extracts every field of msg from payload. Fields extending past
// the end of payload are left out and reported in Warnings; the remaining
// fields are still decoded. The only error is ErrInvalidMessage for a nil
// descriptor.
func Decode(payload []byte, msg *MessageDescriptor) (Decoded, error) {
	return decodeAt(payload, 0, msg)
}

// DecodeTelegram decodes a telegram whose data starts at t.Offset within the
// message. Fields located before the offset are not part of the fragment
// and are skipped silently.
func DecodeTelegram(t Telegram, msg *MessageDescriptor) (Decoded, error) {
	return decodeAt(t.Data, int(t.Offset), msg)
}

func decodeAt(payload []byte, start int, msg *MessageDescriptor) (Decoded, error) {
	if msg == nil {
		return Decoded{}, ErrInvalidMessage
	}

	d := Decoded{
		Message:  msg,
		Readings: make([]Reading, 0, len(msg.fields)),
	}
	for _, f := range msg.fields {
		if int(f.Offset) < start {
			continue
		}
		rel := int(f.Offset) - start
		if rel+int(f.Width) > len(payload) {
			d.Warnings = append(d.Warnings, &FieldError{Field: f.Name, Err: ErrTruncatedField})
			continue
		}
		d.Readings = append(d.Readings, Reading{
			Field: f.Name,
			Value: decodeField(f, payload[rel:rel+int(f.Width)]),
		})
	}
	return d, nil
}

// decodeField converts the field's bytes. b holds exactly f.Width bytes.
func decodeField(f FieldSpec, b []byte) Value {
	switch f.Encoding {
	case EncodingInt8:
		return Integer(int8(b[0]))
	case EncodingUint16:
		return Integer(binary.BigEndian.Uint16(b))
	case EncodingInt16:
		return Integer(int16(binary.BigEndian.Uint16(b)))
	case EncodingUint24:
		return Integer(uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]))
	case EncodingTemperature:
		return decodeTemperature(b)
	case EncodingBitflag:
		return Flag(b[0]>>f.Bit&1 == 1)
	case EncodingEnum:
		if v, ok := f.Values.ByRaw(b[0]); ok {
			return Mode{Name: v.Name, Raw: v.Raw, Known: true}
		}
		return UnknownMode(b[0])
	default:
		return Integer(b[0])
	}
}

// decodeTemperature reads deci-degrees. One-byte temperatures are unsigned,
// two-byte temperatures are signed big-endian.
func decodeTemperature(b []byte) Temperature {
	if len(b) == 1 {
		if b[0] == tempAbsent8 {
			return Temperature{}
		}
		return Celsius(float64(b[0]) / 10)
	}
	raw := binary.BigEndian.Uint16(b)
	if raw == tempAbsent16 {
		return Temperature{}
	}
	return Celsius(float64(int16(raw)) / 10)
}
