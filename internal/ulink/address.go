package ulink

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// multicastPrefix is the first octet of every address the encoder emits.
const multicastPrefix = 239

// Address is an IPv4 multicast group address produced by the encoder.
type Address [4]byte

// String returns the dotted-quad form with every octet unsigned.
func (a Address) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}

// IP returns the address as a net.IP.
func (a Address) IP() net.IP {
	return net.IPv4(a[0], a[1], a[2], a[3])
}

// UDPAddr returns the datagram destination for this address on port.
func (a Address) UDPAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: a.IP(), Port: port}
}

// Group returns the second octet: 0 for the header, the pair index for data.
func (a Address) Group() int {
	return int(a[1])
}

// IsHeader reports whether a is a header address.
func (a Address) IsHeader() bool {
	return a[0] == multicastPrefix && a[1] == 0
}

// ParseAddress parses a dotted-quad string into an Address.
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return Address{}, fmt.Errorf("%w: %q", ErrNotUlinkAddress, s)
	}

	var a Address
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q", ErrNotUlinkAddress, s)
		}
		a[i] = byte(n)
	}
	return a, nil
}

// AddressFromIP converts an IPv4 address to an Address.
// It returns false for anything that is not IPv4.
func AddressFromIP(ip net.IP) (Address, bool) {
	v4 := ip.To4()
	if v4 == nil {
		return Address{}, false
	}
	return Address{v4[0], v4[1], v4[2], v4[3]}, true
}
