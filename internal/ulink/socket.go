package ulink

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// PacketConn is the part of a datagram socket the transmitter needs.
type PacketConn interface {
	WriteTo(b []byte, dst net.Addr) (int, error)
	Close() error
}

// DialFunc opens the socket used by a transmitter. It is called lazily,
// inside the send loop, at most once per successful open.
type DialFunc func() (PacketConn, error)

// SocketOptions configures multicast sockets opened by DialMulticast.
type SocketOptions struct {
	// Interface names the outgoing interface. Empty leaves the choice to
	// the OS routing table.
	Interface string

	// TTL is the multicast time-to-live. Zero means 1.
	TTL int

	// Loopback delivers sent datagrams to listeners on this host.
	Loopback bool
}

// multicastConn adapts ipv4.PacketConn to PacketConn.
type multicastConn struct {
	pc *ipv4.PacketConn
}

func (c *multicastConn) WriteTo(b []byte, dst net.Addr) (int, error) {
	return c.pc.WriteTo(b, nil, dst)
}

func (c *multicastConn) Close() error {
	return c.pc.Close()
}

// DialMulticast returns a DialFunc that opens an unbound UDPv4 socket with
// the multicast options in opts applied.
func DialMulticast(opts SocketOptions) DialFunc {
	return func() (PacketConn, error) {
		conn, err := net.ListenPacket("udp4", "0.0.0.0:0")
		if err != nil {
			return nil, fmt.Errorf("opening udp socket: %w", err)
		}

		pc := ipv4.NewPacketConn(conn)
		if err := applySocketOptions(pc, opts); err != nil {
			pc.Close() //nolint:errcheck // Best effort cleanup on error path
			return nil, err
		}
		return &multicastConn{pc: pc}, nil
	}
}

func applySocketOptions(pc *ipv4.PacketConn, opts SocketOptions) error {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 1
	}
	if err := pc.SetMulticastTTL(ttl); err != nil {
		return fmt.Errorf("setting multicast ttl: %w", err)
	}
	if err := pc.SetMulticastLoopback(opts.Loopback); err != nil {
		return fmt.Errorf("setting multicast loopback: %w", err)
	}

	if opts.Interface != "" {
		ifi, err := net.InterfaceByName(opts.Interface)
		if err != nil {
			return fmt.Errorf("looking up interface %q: %w", opts.Interface, err)
		}
		if err := pc.SetMulticastInterface(ifi); err != nil {
			return fmt.Errorf("setting multicast interface %q: %w", opts.Interface, err)
		}
	}
	return nil
}
