package ems

import (
	"fmt"
	"strings"
)

// Encoding describes how a field's bytes map to a value.
type Encoding uint8

// Field encodings.
const (
	EncodingByte        Encoding = iota + 1 // unsigned 8-bit
	EncodingInt8                            // signed 8-bit
	EncodingUint16                          // unsigned big-endian
	EncodingInt16                           // signed big-endian
	EncodingUint24                          // unsigned big-endian counter
	EncodingTemperature                     // deci-degrees Celsius
	EncodingBitflag                         // one bit of one byte
	EncodingEnum                            // one byte from a closed table
)

var encodingNames = map[Encoding]string{
	EncodingByte:        "byte",
	EncodingInt8:        "int8",
	EncodingUint16:      "uint16",
	EncodingInt16:       "int16",
	EncodingUint24:      "uint24",
	EncodingTemperature: "temperature",
	EncodingBitflag:     "bitflag",
	EncodingEnum:        "enum",
}

func (e Encoding) String() string {
	if n, ok := encodingNames[e]; ok {
		return n
	}
	return fmt.Sprintf("encoding(%d)", uint8(e))
}

// MarshalText implements encoding.TextMarshaler.
func (e Encoding) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Temperature sentinels meaning "sensor not present".
const (
	tempAbsent8  = 0x7D
	tempAbsent16 = 0x8000
)

// EnumValue is one named raw value of an enum field.
type EnumValue struct {
	Name string `json:"name"`
	Raw  byte   `json:"raw"`
}

// EnumTable is the closed set of values an enum field accepts.
type EnumTable []EnumValue

// ByRaw returns the entry for a raw byte.
func (t EnumTable) ByRaw(raw byte) (EnumValue, bool) {
	for _, v := range t {
		if v.Raw == raw {
			return v, true
		}
	}
	return EnumValue{}, false
}

// ByName returns the entry for a name, ignoring case.
func (t EnumTable) ByName(name string) (EnumValue, bool) {
	for _, v := range t {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return EnumValue{}, false
}

// Names lists the value names in table order.
func (t EnumTable) Names() []string {
	names := make([]string, len(t))
	for i, v := range t {
		names[i] = v.Name
	}
	return names
}

// Value tables shared by several messages.
var (
	onOffValues = EnumTable{{"on", 0xFF}, {"off", 0x00}}

	oneTimeValues = EnumTable{{"on", 0x22}, {"off", 0x02}}

	wwComfortValues = EnumTable{{"hot", 0x00}, {"eco", 0xD8}, {"intelligent", 0xEC}}

	rcModeValues = EnumTable{{"night", 0}, {"day", 1}, {"auto", 2}}

	rcPlusModeValues = EnumTable{{"auto", 0xFF}, {"manual", 0x00}}

	heatingTypeValues = EnumTable{{"off", 0}, {"radiator", 1}, {"convector", 2}, {"floor", 3}}

	junkersDayModeValues = EnumTable{{"day", 3}, {"night", 2}}

	junkersModeValues = EnumTable{{"manual", 1}, {"auto", 2}}
)

// FieldSpec locates and types one value inside a telegram payload.
// Offsets are relative to the first data byte.
type FieldSpec struct {
	Name     string    `json:"name"`
	Offset   uint8     `json:"offset"`
	Width    uint8     `json:"width"`
	Encoding Encoding  `json:"encoding"`
	Bit      uint8     `json:"bit,omitempty"`
	Values   EnumTable `json:"values,omitempty"`
	Unit     string    `json:"unit,omitempty"`
}

// Kind returns the value kind the field decodes to and accepts for encoding.
func (f FieldSpec) Kind() Kind {
	switch f.Encoding {
	case EncodingTemperature:
		return KindTemperature
	case EncodingBitflag:
		return KindFlag
	case EncodingEnum:
		return KindMode
	default:
		return KindInteger
	}
}

func (f FieldSpec) end() int {
	return int(f.Offset) + int(f.Width)
}

// overlaps reports whether two fields claim the same payload bits. Bit
// flags may share a byte as long as they use different bits.
func (f FieldSpec) overlaps(o FieldSpec) bool {
	if f.end() <= int(o.Offset) || o.end() <= int(f.Offset) {
		return false
	}
	if f.Encoding == EncodingBitflag && o.Encoding == EncodingBitflag {
		return f.Bit == o.Bit
	}
	return true
}

func (f FieldSpec) validate() error {
	want := map[Encoding]uint8{
		EncodingByte:    1,
		EncodingInt8:    1,
		EncodingUint16:  2,
		EncodingInt16:   2,
		EncodingUint24:  3,
		EncodingBitflag: 1,
		EncodingEnum:    1,
	}
	switch {
	case f.Name == "":
		return fmt.Errorf("field at offset %d has no name", f.Offset)
	case f.Encoding == EncodingTemperature:
		if f.Width != 1 && f.Width != 2 {
			return fmt.Errorf("field %s: temperature width %d", f.Name, f.Width)
		}
	case want[f.Encoding] == 0:
		return fmt.Errorf("field %s: unknown encoding %d", f.Name, f.Encoding)
	case want[f.Encoding] != f.Width:
		return fmt.Errorf("field %s: %s needs width %d, got %d", f.Name, f.Encoding, want[f.Encoding], f.Width)
	}
	if f.Encoding == EncodingBitflag && f.Bit > 7 {
		return fmt.Errorf("field %s: bit %d out of range", f.Name, f.Bit)
	}
	if f.Encoding == EncodingEnum && len(f.Values) == 0 {
		return fmt.Errorf("field %s: enum without values", f.Name)
	}
	return nil
}

// Field constructors used by the layout tables.

func u8(name string, off uint8, unit string) FieldSpec {
	return FieldSpec{Name: name, Offset: off, Width: 1, Encoding: EncodingByte, Unit: unit}
}

func i8(name string, off uint8, unit string) FieldSpec {
	return FieldSpec{Name: name, Offset: off, Width: 1, Encoding: EncodingInt8, Unit: unit}
}

func u16(name string, off uint8, unit string) FieldSpec {
	return FieldSpec{Name: name, Offset: off, Width: 2, Encoding: EncodingUint16, Unit: unit}
}

func i16(name string, off uint8, unit string) FieldSpec {
	return FieldSpec{Name: name, Offset: off, Width: 2, Encoding: EncodingInt16, Unit: unit}
}

func u24(name string, off uint8, unit string) FieldSpec {
	return FieldSpec{Name: name, Offset: off, Width: 3, Encoding: EncodingUint24, Unit: unit}
}

func temp8(name string, off uint8) FieldSpec {
	return FieldSpec{Name: name, Offset: off, Width: 1, Encoding: EncodingTemperature, Unit: "°C"}
}

func temp16(name string, off uint8) FieldSpec {
	return FieldSpec{Name: name, Offset: off, Width: 2, Encoding: EncodingTemperature, Unit: "°C"}
}

func flag(name string, off, bit uint8) FieldSpec {
	return FieldSpec{Name: name, Offset: off, Width: 1, Encoding: EncodingBitflag, Bit: bit}
}

func enum(name string, off uint8, values EnumTable) FieldSpec {
	return FieldSpec{Name: name, Offset: off, Width: 1, Encoding: EncodingEnum, Values: values}
}
