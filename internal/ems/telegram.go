package ems

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	readFlag       = 0x80
	extendedMarker = 0xFF

	// [src][dst][type][offset]
	minFrameLen = 4
	// [src][dst][0xFF][offset][typeHi][typeLo]
	minExtendedFrameLen = 6
)

// Telegram is one EMS bus frame with the checksum removed.
type Telegram struct {
	Source      Address
	Destination Address

	// Read is set for read requests (destination top bit).
	Read bool

	Type   TypeID
	Offset uint8

	// Extended frames use the EMS+ layout with a two-byte type.
	Extended bool

	Data []byte
}

// ParseTelegram decodes a frame.
//
// Classic frames are laid out as [src][dst][type][offset][data...]. EMS+
// frames carry 0xFF in the type position and move the type behind the
// offset: [src][dst][0xFF][offset][typeHi][typeLo][data...].
func ParseTelegram(frame []byte) (Telegram, error) {
	if len(frame) < minFrameLen {
		return Telegram{}, fmt.Errorf("%w: frame too short (%d bytes)", ErrInvalidTelegram, len(frame))
	}

	t := Telegram{
		Source:      Address(frame[0] & addressMask),
		Destination: Address(frame[1] & addressMask),
		Read:        frame[1]&readFlag != 0,
		Offset:      frame[3],
	}

	data := frame[4:]
	if frame[2] == extendedMarker {
		if len(frame) < minExtendedFrameLen {
			return Telegram{}, fmt.Errorf("%w: EMS+ frame too short (%d bytes)", ErrInvalidTelegram, len(frame))
		}
		t.Extended = true
		t.Type = TypeID(frame[4])<<8 | TypeID(frame[5])
		data = frame[6:]
	} else {
		t.Type = TypeID(frame[2])
	}

	t.Data = make([]byte, len(data))
	copy(t.Data, data)
	return t, nil
}

// Bytes encodes the telegram as a frame without checksum.
func (t Telegram) Bytes() []byte {
	dst := byte(t.Destination)
	if t.Read {
		dst |= readFlag
	}

	if t.Extended || t.Type > 0xFF {
		out := make([]byte, 0, minExtendedFrameLen+len(t.Data))
		out = append(out, byte(t.Source), dst, extendedMarker, t.Offset, byte(t.Type>>8), byte(t.Type))
		return append(out, t.Data...)
	}
	out := make([]byte, 0, minFrameLen+len(t.Data))
	out = append(out, byte(t.Source), dst, byte(t.Type), t.Offset)
	return append(out, t.Data...)
}

// String renders the telegram for logs.
func (t Telegram) String() string {
	op := "write"
	if t.Read {
		op = "read"
	}
	return fmt.Sprintf("%s -> %s %s type %s offset %d data % X", t.Source, t.Destination, op, t.Type, t.Offset, t.Data)
}

// ParseHex decodes a frame written as hex, such as "08 00 18 00 4B 01" or
// "0800184B01". Spaces, colons and dashes between bytes are ignored.
func ParseHex(s string) (Telegram, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', ':', '-':
			return -1
		}
		return r
	}, s)

	frame, err := hex.DecodeString(clean)
	if err != nil {
		return Telegram{}, fmt.Errorf("%w: %v", ErrInvalidTelegram, err)
	}
	return ParseTelegram(frame)
}

// ReadRequest builds a read request for up to length bytes of a message,
// sent from the gateway.
func ReadRequest(dst Address, msg *MessageDescriptor, offset, length uint8) Telegram {
	return Telegram{
		Source:      AddrServiceKey,
		Destination: dst,
		Read:        true,
		Type:        msg.TypeID,
		Offset:      offset,
		Extended:    msg.Extended,
		Data:        []byte{length},
	}
}
