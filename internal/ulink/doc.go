// Package ulink encodes a short payload into IPv4 multicast group addresses
// and retransmits it until told to stop.
//
// A device that is not yet associated with a Wi-Fi network can still see
// the destination addresses of multicast frames in monitor mode. The sender
// therefore carries no data in the datagram body at all: every byte of the
// payload lives in the last octets of a 239.x.y.z group address.
//
// # Address Grammar
//
//	header:  239.0.<length>.<checksum>     checksum = XOR of all bytes
//	data:    239.<g>.<b0>.<b1>             g = 1-based pair index
//	tail:    239.<g>.<b>.0                 odd final byte, padded
//
// Every datagram goes to UDP port 1200 and carries the single byte 'x'.
//
// Example:
//
//	seq, err := ulink.Encode([]byte("ABC"))
//	// seq.Header      -> 239.0.3.64
//	// seq.Data        -> 239.1.65.66, 239.2.67.0
//
// # Transmission
//
// A Transmitter runs one background goroutine that repeats a cycle
// (interval sleep, header, header pause, data addresses) until Stop is
// called. Stop only sets a flag that is checked at the top of each cycle,
// so a cycle in flight always completes. Transmitters move from Idle to
// Running to Stopped and are never restarted; the Controller creates a
// fresh one for every Start.
//
// Lifecycle events (started, stopped) are queued and delivered to
// subscribers on a dedicated goroutine, so a slow subscriber never delays
// the send loop.
//
// # Thread Safety
//
// Controller and Transmitter are safe for concurrent use. Encode, Checksum
// and Decode are pure functions. Assembler is not safe for concurrent use.
package ulink
