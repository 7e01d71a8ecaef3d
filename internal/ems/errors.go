package ems

import "errors"

// Domain errors for the EMS codec.
var (
	// ErrUnknownDevice is returned when an address/product id pair is not in
	// the device catalog. Callers may continue with the generic descriptor
	// of the address role.
	ErrUnknownDevice = errors.New("ems: unknown device")

	// ErrUnknownTelegramType is returned when a telegram type is not modelled
	// for the device type. Such telegrams are expected and should be ignored.
	ErrUnknownTelegramType = errors.New("ems: unknown telegram type")

	// ErrTruncatedField is recorded per field when the payload ends before
	// the field's last byte.
	ErrTruncatedField = errors.New("ems: truncated field")

	// ErrUnknownField is returned when encoding a field the message does not declare.
	ErrUnknownField = errors.New("ems: unknown field")

	// ErrTypeMismatch is returned when a value's kind does not match the
	// field's encoding.
	ErrTypeMismatch = errors.New("ems: value kind does not match field encoding")

	// ErrInvalidEnumValue is returned when a mode name is not part of the
	// field's value table.
	ErrInvalidEnumValue = errors.New("ems: invalid enum value")

	// ErrValueOutOfRange is returned when a value cannot be represented in
	// the field's width.
	ErrValueOutOfRange = errors.New("ems: value out of range")

	// ErrWriteNotSupported is returned for every encode call against a
	// device that cannot be written to.
	ErrWriteNotSupported = errors.New("ems: device does not support writes")

	// ErrInvalidMessage is returned when a nil message descriptor is supplied.
	ErrInvalidMessage = errors.New("ems: invalid message descriptor")

	// ErrInvalidTelegram is returned when a frame cannot be parsed.
	ErrInvalidTelegram = errors.New("ems: invalid telegram")

	// ErrInvalidAddress is returned when an address string cannot be parsed.
	ErrInvalidAddress = errors.New("ems: invalid address")

	// ErrPartialWrite is returned when a bit-level patch is turned into a
	// telegram without the current value of the byte.
	ErrPartialWrite = errors.New("ems: bit patch requires the current byte")

	// ErrPatchOutOfRange is returned when a patch does not fit the buffer it
	// is applied to.
	ErrPatchOutOfRange = errors.New("ems: patch exceeds buffer")
)
