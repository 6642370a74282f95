package ulink

import "fmt"

// Assembler reassembles a payload from observed addresses, the way a
// sniffing receiver would. Addresses may arrive in any order and repeat
// across cycles.
type Assembler struct {
	haveHeader bool
	length     int
	checksum   byte
	groups     map[int][2]byte
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{groups: make(map[int][2]byte)}
}

// Reset discards everything observed so far.
func (a *Assembler) Reset() {
	a.haveHeader = false
	a.length = 0
	a.checksum = 0
	clear(a.groups)
}

// Observe records one address. It returns the payload and true once the
// header and every data group have been seen and the checksum matches.
// The assembler resets itself after a completed payload.
func (a *Assembler) Observe(addr Address) ([]byte, bool, error) {
	if addr[0] != multicastPrefix {
		return nil, false, fmt.Errorf("%w: %s", ErrNotUlinkAddress, addr)
	}

	if addr.IsHeader() {
		length, sum := int(addr[2]), addr[3]
		if a.haveHeader && (length != a.length || sum != a.checksum) {
			// A different payload is on the air.
			clear(a.groups)
		}
		a.haveHeader, a.length, a.checksum = true, length, sum
	} else {
		a.groups[addr.Group()] = [2]byte{addr[2], addr[3]}
	}

	if !a.haveHeader {
		return nil, false, nil
	}
	return a.tryComplete()
}

func (a *Assembler) tryComplete() ([]byte, bool, error) {
	pairs := (a.length + 1) / 2
	for g := 1; g <= pairs; g++ {
		if _, ok := a.groups[g]; !ok {
			return nil, false, nil
		}
	}

	payload := make([]byte, 0, a.length)
	for g := 1; g <= pairs; g++ {
		pair := a.groups[g]
		payload = append(payload, pair[0])
		if len(payload) < a.length {
			payload = append(payload, pair[1])
		} else if pair[1] != 0 {
			delete(a.groups, g)
			return nil, false, fmt.Errorf("%w: group %d", ErrInvalidPadding, g)
		}
	}

	if got := Checksum(payload); got != a.checksum {
		want := a.checksum
		clear(a.groups)
		return nil, false, fmt.Errorf("%w: got %d, header says %d", ErrChecksumMismatch, got, want)
	}

	a.Reset()
	return payload, true, nil
}

// Decode reassembles the first complete payload found in addrs.
func Decode(addrs []Address) ([]byte, error) {
	asm := NewAssembler()
	for _, addr := range addrs {
		payload, ok, err := asm.Observe(addr)
		if err != nil {
			return nil, err
		}
		if ok {
			return payload, nil
		}
	}
	return nil, ErrIncomplete
}
