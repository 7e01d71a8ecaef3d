package ems

import (
	"fmt"
	"strings"
)

// DeviceType is the broad role of a device on the bus.
type DeviceType uint8

// Device types.
const (
	DeviceTypeNone DeviceType = iota
	DeviceTypeBoiler
	DeviceTypeThermostat
	DeviceTypeSolar
	DeviceTypeHeatPump
	DeviceTypeGateway
	DeviceTypeMixing
	DeviceTypeSwitch
	DeviceTypeController
	DeviceTypeConnect
	DeviceTypeServiceKey
)

var deviceTypeNames = [...]string{
	DeviceTypeNone:       "none",
	DeviceTypeBoiler:     "boiler",
	DeviceTypeThermostat: "thermostat",
	DeviceTypeSolar:      "solar",
	DeviceTypeHeatPump:   "heatpump",
	DeviceTypeGateway:    "gateway",
	DeviceTypeMixing:     "mixing",
	DeviceTypeSwitch:     "switch",
	DeviceTypeController: "controller",
	DeviceTypeConnect:    "connect",
	DeviceTypeServiceKey: "servicekey",
}

// String returns the lower-case device type name.
func (t DeviceType) String() string {
	if int(t) < len(deviceTypeNames) {
		return deviceTypeNames[t]
	}
	return fmt.Sprintf("devicetype(%d)", uint8(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t DeviceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DeviceType) UnmarshalText(text []byte) error {
	parsed, ok := ParseDeviceType(string(text))
	if !ok {
		return fmt.Errorf("ems: unknown device type %q", string(text))
	}
	*t = parsed
	return nil
}

// ParseDeviceType resolves a device type by name, ignoring case.
func ParseDeviceType(name string) (DeviceType, bool) {
	for i, n := range deviceTypeNames {
		if strings.EqualFold(n, name) {
			return DeviceType(i), true
		}
	}
	return DeviceTypeNone, false
}

// Family selects which message set a device speaks.
type Family uint8

// Device families.
const (
	FamilyNone Family = iota
	FamilyRC10
	FamilyRC20
	FamilyRC30
	FamilyRC35
	FamilyRC300
	FamilyEasy
	FamilyJunkers
	FamilySM10
	FamilySM100
)

var familyNames = [...]string{
	FamilyNone:    "none",
	FamilyRC10:    "RC10",
	FamilyRC20:    "RC20",
	FamilyRC30:    "RC30",
	FamilyRC35:    "RC35",
	FamilyRC300:   "RC300",
	FamilyEasy:    "Easy",
	FamilyJunkers: "Junkers",
	FamilySM10:    "SM10",
	FamilySM100:   "SM100",
}

func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return fmt.Sprintf("family(%d)", uint8(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Family) UnmarshalText(text []byte) error {
	for i, n := range familyNames {
		if strings.EqualFold(n, string(text)) {
			*f = Family(i)
			return nil
		}
	}
	return fmt.Errorf("ems: unknown family %q", text)
}

// ProductID is the model identifier a device reports in its Version telegram.
type ProductID uint8

// Capabilities describe what the gateway may do with a device.
type Capabilities struct {
	// Writable is false for devices known to misbehave when written to.
	Writable bool   `json:"writable"`
	Family   Family `json:"family"`
}

// DeviceDescriptor is an entry of the device catalog.
type DeviceDescriptor struct {
	ProductID    ProductID    `json:"productId"`
	Type         DeviceType   `json:"type"`
	Name         string       `json:"name"`
	Capabilities Capabilities `json:"capabilities"`

	// Generic marks a degraded descriptor built from the address role alone.
	Generic bool `json:"generic,omitempty"`
}

func (d DeviceDescriptor) String() string {
	if d.Generic {
		return fmt.Sprintf("%s (generic %s)", d.Name, d.Type)
	}
	return fmt.Sprintf("%s (%s, product %d)", d.Name, d.Type, d.ProductID)
}

// Classify identifies a device from its bus address and product id.
//
// The address selects the expected device type; only catalog entries of
// that type are considered and the first one carrying productID wins. The
// second return value is false when the address is not reserved or no
// entry matches.
func Classify(addr Address, productID ProductID) (DeviceDescriptor, bool) {
	role, ok := RoleOf(addr)
	if !ok {
		return DeviceDescriptor{}, false
	}
	for _, d := range devices {
		if d.Type == role.Type && d.ProductID == productID {
			return d, true
		}
	}
	return DeviceDescriptor{}, false
}

// GenericDescriptor returns the unnamed descriptor for a reserved address.
// Generic descriptors are never writable.
func GenericDescriptor(addr Address) (DeviceDescriptor, bool) {
	role, ok := RoleOf(addr)
	if !ok {
		return DeviceDescriptor{}, false
	}
	return DeviceDescriptor{
		Type:    role.Type,
		Name:    role.Name,
		Generic: true,
	}, true
}

// Devices returns the device catalog in declaration order.
func Devices() []DeviceDescriptor {
	out := make([]DeviceDescriptor, len(devices))
	copy(out, devices)
	return out
}
