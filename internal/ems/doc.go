// Package ems classifies and decodes telegrams from the EMS heating bus.
//
// The package is the codec layer between a transport that delivers framed,
// checksum-validated telegrams and the consumers of typed readings. It holds
// no mutable state: every catalog is built once at package initialisation
// and every operation is a pure function over its inputs.
//
// # Pipeline
//
//	raw telegram
//	    │
//	    ├─► Classify(address, productID)      → DeviceDescriptor
//	    ├─► ResolveMessage(deviceType, type)  → MessageDescriptor
//	    ├─► Decode(payload, message)          → Decoded readings
//	    └─► Encode(device, message, field, v) → Patch
//
// # Devices
//
// A device is identified by its bus address and the product id it announces
// in its Version telegram. The address implies a role (boiler, thermostat,
// solar module, ...) and the product id picks the concrete model among the
// catalog entries of that role. Catalog order matters: the first matching
// entry wins.
//
//	dev, ok := ems.Classify(ems.AddrBoiler, 123)
//	if !ok {
//	    dev, _ = ems.GenericDescriptor(ems.AddrBoiler)
//	}
//
// # Messages and fields
//
// Each message descriptor lists its fields with payload-relative offsets
// and an encoding: plain integers, deci-degree temperatures, bit flags and
// enumerated modes. Heating-circuit messages (HC1..HC4) are declared once
// and expanded into four descriptors sharing the same layout.
//
//	msg, ok := ems.ResolveMessage(ems.DeviceTypeThermostat, 0x3E)
//	decoded, err := ems.Decode(payload, msg)
//	setpoint, _ := decoded.Get("setpoint")
//
// # Thread Safety
//
// All exported functions are safe for concurrent use.
package ems
