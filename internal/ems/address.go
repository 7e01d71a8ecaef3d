package ems

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is an 8-bit EMS bus identifier.
type Address uint8

// Reserved bus addresses.
const (
	AddrNone        Address = 0x00 // broadcast
	AddrConnect1    Address = 0x02
	AddrBoiler      Address = 0x08 // all UBA boilers
	AddrController  Address = 0x09
	AddrServiceKey  Address = 0x0B // this gateway
	AddrThermostat1 Address = 0x10
	AddrSwitch      Address = 0x11
	AddrThermostat2 Address = 0x17
	AddrThermostat3 Address = 0x18
	AddrMixing1     Address = 0x20
	AddrMixing2     Address = 0x21
	AddrSolar       Address = 0x30 // SM10, SM100 and ISM1
	AddrHeatPump    Address = 0x38
	AddrGateway     Address = 0x48 // e.g. KM200
	AddrConnect2    Address = 0x50
)

// addressMask strips the read/poll bit carried in the top bit of address bytes.
const addressMask = 0x7F

// Role is the fixed function bound to a reserved address.
type Role struct {
	Address Address
	Type    DeviceType
	Name    string
}

// roles maps reserved addresses to their device type. Each address appears once.
var roles = []Role{
	{AddrBoiler, DeviceTypeBoiler, "UBAMaster"},
	{AddrThermostat1, DeviceTypeThermostat, "Thermostat"},
	{AddrThermostat2, DeviceTypeThermostat, "Thermostat"},
	{AddrThermostat3, DeviceTypeThermostat, "Thermostat"},
	{AddrSolar, DeviceTypeSolar, "Solar Module"},
	{AddrHeatPump, DeviceTypeHeatPump, "Heat Pump"},
	{AddrGateway, DeviceTypeGateway, "Gateway"},
	{AddrServiceKey, DeviceTypeServiceKey, "Me"},
	{AddrNone, DeviceTypeNone, "All"},
	{AddrMixing1, DeviceTypeMixing, "Mixing Module"},
	{AddrMixing2, DeviceTypeMixing, "Mixing Module"},
	{AddrSwitch, DeviceTypeSwitch, "Switching Module"},
	{AddrController, DeviceTypeController, "Controller"},
	{AddrConnect1, DeviceTypeConnect, "Connect"},
	{AddrConnect2, DeviceTypeConnect, "Connect"},
}

// RoleOf returns the role bound to a reserved address.
func RoleOf(addr Address) (Role, bool) {
	for _, r := range roles {
		if r.Address == addr {
			return r, true
		}
	}
	return Role{}, false
}

// Roles returns the reserved address table in declaration order.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// String returns the address in "0x10" notation.
func (a Address) String() string {
	return fmt.Sprintf("0x%02X", uint8(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses an address given as "0x10", "10h" or decimal "16".
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	base := 0
	if strings.HasSuffix(strings.ToLower(s), "h") {
		s = s[:len(s)-1]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return Address(v), nil
}
