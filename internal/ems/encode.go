package ems

import (
	"fmt"
	"math"
)

// Patch is the result of encoding one field: the bytes to write at Offset
// of message Type. Mask is 0xFF for whole-byte fields; for bit flags only
// the masked bits of the single data byte are meaningful.
type Patch struct {
	Type     TypeID
	Offset   uint8
	Data     []byte
	Mask     byte
	Extended bool
}

// Apply merges the patch into a copy of the message's current payload.
func (p Patch) Apply(buf []byte) error {
	if int(p.Offset)+len(p.Data) > len(buf) {
		return fmt.Errorf("%w: offset %d len %d, buffer %d", ErrPatchOutOfRange, p.Offset, len(p.Data), len(buf))
	}
	for i, b := range p.Data {
		at := int(p.Offset) + i
		buf[at] = buf[at]&^p.Mask | b&p.Mask
	}
	return nil
}

// Telegram builds the write telegram for a whole-byte patch. Bit patches
// need the current byte and return ErrPartialWrite; merge them with Apply
// into a full payload first.
func (p Patch) Telegram(src, dst Address) (Telegram, error) {
	if p.Mask != 0xFF {
		return Telegram{}, fmt.Errorf("%w: type %s offset %d", ErrPartialWrite, p.Type, p.Offset)
	}
	data := make([]byte, len(p.Data))
	copy(data, p.Data)
	return Telegram{
		Source:      src,
		Destination: dst,
		Type:        p.Type,
		Offset:      p.Offset,
		Extended:    p.Extended,
		Data:        data,
	}, nil
}

// Encode produces the bytes that set field of msg to v on dev.
//
// Checks run in this order: the device must accept writes, the field must
// exist, v must have the field's kind, enum names must be in the field's
// table and numbers must fit the field width.
func Encode(dev DeviceDescriptor, msg *MessageDescriptor, field string, v Value) (Patch, error) {
	if !dev.Capabilities.Writable {
		return Patch{}, fmt.Errorf("%w: %s", ErrWriteNotSupported, dev.Name)
	}
	if msg == nil {
		return Patch{}, ErrInvalidMessage
	}
	f, ok := msg.Field(field)
	if !ok {
		return Patch{}, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, msg.Key(), field)
	}
	if v == nil || v.Kind() != f.Kind() {
		return Patch{}, fmt.Errorf("%w: %s expects %s, got %s", ErrTypeMismatch, f.Name, f.Kind(), kindOf(v))
	}

	data, mask, err := encodeField(f, v)
	if err != nil {
		return Patch{}, fmt.Errorf("%s.%s: %w", msg.Key(), f.Name, err)
	}
	return Patch{
		Type:     msg.TypeID,
		Offset:   f.Offset,
		Data:     data,
		Mask:     mask,
		Extended: msg.Extended,
	}, nil
}

func kindOf(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}

func encodeField(f FieldSpec, v Value) ([]byte, byte, error) {
	switch f.Encoding {
	case EncodingBitflag:
		mask := byte(1) << f.Bit
		if v.(Flag) {
			return []byte{mask}, mask, nil
		}
		return []byte{0}, mask, nil

	case EncodingEnum:
		m := v.(Mode)
		if !m.Known {
			return nil, 0, fmt.Errorf("%w: %s", ErrInvalidEnumValue, m)
		}
		ev, ok := f.Values.ByName(m.Name)
		if !ok {
			return nil, 0, fmt.Errorf("%w: %q, want one of %v", ErrInvalidEnumValue, m.Name, f.Values.Names())
		}
		return []byte{ev.Raw}, 0xFF, nil

	case EncodingTemperature:
		data, err := encodeTemperature(f, v.(Temperature))
		return data, 0xFF, err

	default:
		data, err := encodeInteger(f, int64(v.(Integer)))
		return data, 0xFF, err
	}
}

func encodeTemperature(f FieldSpec, t Temperature) ([]byte, error) {
	if !t.Present || math.IsNaN(t.Celsius) || math.IsInf(t.Celsius, 0) {
		return nil, fmt.Errorf("%w: %s is not a temperature", ErrValueOutOfRange, t)
	}
	deci := math.Round(t.Celsius * 10)

	if f.Width == 1 {
		if deci < 0 || deci > math.MaxUint8 || deci == tempAbsent8 {
			return nil, fmt.Errorf("%w: %.1f°C", ErrValueOutOfRange, t.Celsius)
		}
		return []byte{byte(deci)}, nil
	}

	// -3276.8 is the absent sentinel.
	if deci < -math.MaxInt16 || deci > math.MaxInt16 {
		return nil, fmt.Errorf("%w: %.1f°C", ErrValueOutOfRange, t.Celsius)
	}
	raw := uint16(int16(deci))
	return []byte{byte(raw >> 8), byte(raw)}, nil
}

func encodeInteger(f FieldSpec, n int64) ([]byte, error) {
	lo, hi := int64(0), int64(0)
	switch f.Encoding {
	case EncodingByte:
		hi = math.MaxUint8
	case EncodingInt8:
		lo, hi = math.MinInt8, math.MaxInt8
	case EncodingUint16:
		hi = math.MaxUint16
	case EncodingInt16:
		lo, hi = math.MinInt16, math.MaxInt16
	case EncodingUint24:
		hi = 1<<24 - 1
	}
	if n < lo || n > hi {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrValueOutOfRange, n, lo, hi)
	}

	u := uint32(n)
	switch f.Width {
	case 1:
		return []byte{byte(u)}, nil
	case 2:
		return []byte{byte(u >> 8), byte(u)}, nil
	default:
		return []byte{byte(u >> 16), byte(u >> 8), byte(u)}, nil
	}
}
