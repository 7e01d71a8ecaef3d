package emsmqtt

import "errors"

// Domain errors for the EMS bridge package.
var (
	// ErrInvalidFrame is returned when a raw frame payload cannot be parsed.
	ErrInvalidFrame = errors.New("emsmqtt: invalid raw frame")

	// ErrInvalidCommand is returned for malformed command payloads.
	ErrInvalidCommand = errors.New("emsmqtt: invalid command")

	// ErrUnsupportedValue is returned when a JSON value cannot be converted
	// to the value kind a field expects.
	ErrUnsupportedValue = errors.New("emsmqtt: unsupported value")

	// ErrReadOnlyMessage is returned when a command targets a monitor message.
	ErrReadOnlyMessage = errors.New("emsmqtt: message is read-only")

	// ErrFamilyMismatch is returned when a command targets a message of
	// another thermostat or solar family than the device's.
	ErrFamilyMismatch = errors.New("emsmqtt: message not supported by device family")

	// ErrCurrentValueUnknown is returned when a bit field write needs the
	// current byte and none has been seen on the bus yet.
	ErrCurrentValueUnknown = errors.New("emsmqtt: current value unknown")
)
