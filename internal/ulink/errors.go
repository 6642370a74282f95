package ulink

import "errors"

// Domain errors for the ulink package.
var (
	// ErrPayloadTooLong is returned when a payload exceeds MaxPayloadLength.
	ErrPayloadTooLong = errors.New("ulink: payload too long")

	// ErrAlreadyRunning is returned by Start while a transmission is running.
	ErrAlreadyRunning = errors.New("ulink: transmission already running")

	// ErrTransmitterStopped is returned when Start is called on a transmitter
	// that has already finished.
	ErrTransmitterStopped = errors.New("ulink: transmitter already stopped")

	// ErrControllerClosed is returned by Start after Shutdown.
	ErrControllerClosed = errors.New("ulink: controller closed")

	// ErrTransientSend wraps a failed socket open or datagram send.
	// It is reported to observers and logs, never to Start callers.
	ErrTransientSend = errors.New("ulink: transient send failure")

	// ErrInvalidPayload is returned when payload input cannot be parsed.
	ErrInvalidPayload = errors.New("ulink: invalid payload")

	// ErrNotUlinkAddress is returned when an address is outside 239.0.0.0/8.
	ErrNotUlinkAddress = errors.New("ulink: not a ulink address")

	// ErrChecksumMismatch is returned when reassembled bytes do not match
	// the header checksum.
	ErrChecksumMismatch = errors.New("ulink: checksum mismatch")

	// ErrIncomplete is returned by Decode when the addresses do not cover
	// the header and every data group.
	ErrIncomplete = errors.New("ulink: incomplete sequence")

	// ErrInvalidPadding is returned when the padding octet of an odd tail
	// is not zero.
	ErrInvalidPadding = errors.New("ulink: invalid padding")
)
