package ems

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind classifies decoded values.
type Kind uint8

// Value kinds.
const (
	KindInteger Kind = iota + 1
	KindTemperature
	KindFlag
	KindMode
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindTemperature:
		return "temperature"
	case KindFlag:
		return "flag"
	case KindMode:
		return "mode"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a decoded field value: Integer, Temperature, Flag or Mode.
// All implementations are comparable with ==.
type Value interface {
	Kind() Kind
	String() string
	isValue()
}

// Integer is the value of a plain numeric field.
type Integer int64

func (Integer) Kind() Kind       { return KindInteger }
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }
func (Integer) isValue()         {}

// Flag is the value of a single bit.
type Flag bool

func (Flag) Kind() Kind       { return KindFlag }
func (f Flag) String() string { return strconv.FormatBool(bool(f)) }
func (Flag) isValue()         {}

// Temperature is a reading in degrees Celsius. Present is false when the
// device reported its "sensor not fitted" sentinel.
type Temperature struct {
	Celsius float64
	Present bool
}

// Celsius returns a present temperature.
func Celsius(c float64) Temperature {
	return Temperature{Celsius: c, Present: true}
}

func (Temperature) Kind() Kind { return KindTemperature }
func (Temperature) isValue()   {}

func (t Temperature) String() string {
	if !t.Present {
		return "absent"
	}
	return strconv.FormatFloat(t.Celsius, 'f', 1, 64)
}

// MarshalJSON encodes a present temperature as a number with one decimal
// and an absent one as null.
func (t Temperature) MarshalJSON() ([]byte, error) {
	if !t.Present || math.IsNaN(t.Celsius) || math.IsInf(t.Celsius, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(t.Celsius, 'f', 1, 64)), nil
}

// Mode is the value of an enum field. Known is false for raw bytes that are
// not in the field's table; Name is empty in that case.
type Mode struct {
	Name  string
	Raw   byte
	Known bool
}

// ModeNamed returns a mode selected by name, as used for encoding.
func ModeNamed(name string) Mode {
	return Mode{Name: name, Known: true}
}

// UnknownMode returns the mode for a raw byte outside the field's table.
func UnknownMode(raw byte) Mode {
	return Mode{Raw: raw}
}

func (Mode) Kind() Kind { return KindMode }
func (Mode) isValue()   {}

func (m Mode) String() string {
	if !m.Known {
		return fmt.Sprintf("unknown(0x%02X)", m.Raw)
	}
	return m.Name
}

// MarshalJSON encodes the mode as its name, or "unknown(0xNN)".
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}
