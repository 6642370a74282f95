package ulink

import "fmt"

const (
	// MaxPayloadLength is the largest payload the header length octet can describe.
	MaxPayloadLength = 254

	// DefaultPort is the destination UDP port of every datagram.
	DefaultPort = 1200
)

// datagramBody is the placeholder body. Receivers only look at addresses.
var datagramBody = []byte{'x'}

// Sequence is the ordered list of addresses describing one payload.
type Sequence struct {
	PayloadLength int
	Checksum      byte
	Header        Address
	Data          []Address
}

// IsEmpty reports whether the sequence describes an empty payload.
// An empty sequence is never put on the wire.
func (s Sequence) IsEmpty() bool {
	return s.PayloadLength == 0
}

// Addresses returns the header followed by every data address.
func (s Sequence) Addresses() []Address {
	out := make([]Address, 0, 1+len(s.Data))
	out = append(out, s.Header)
	return append(out, s.Data...)
}

// Strings returns Addresses in dotted-quad form.
func (s Sequence) Strings() []string {
	addrs := s.Addresses()
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}

// Checksum returns the XOR of every byte in payload, or 0 when it is empty.
func Checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum ^= b
	}
	return sum
}

// Encode converts payload into its address sequence.
//
// Bytes are consumed two at a time; pair g (1-based) becomes 239.g.b0.b1
// and a lone final byte becomes 239.g.b.0. The payload slice is not retained.
//
// Returns ErrPayloadTooLong when len(payload) > MaxPayloadLength.
func Encode(payload []byte) (Sequence, error) {
	n := len(payload)
	if n > MaxPayloadLength {
		return Sequence{}, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLong, n, MaxPayloadLength)
	}

	sum := Checksum(payload)
	seq := Sequence{
		PayloadLength: n,
		Checksum:      sum,
		Header:        Address{multicastPrefix, 0, byte(n), sum},
		Data:          make([]Address, 0, (n+1)/2),
	}

	for i, g := 0, 1; i < n; i, g = i+2, g+1 {
		var second byte
		if i+1 < n {
			second = payload[i+1]
		}
		seq.Data = append(seq.Data, Address{multicastPrefix, byte(g), payload[i], second})
	}

	return seq, nil
}
