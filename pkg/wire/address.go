package wire

import (
	"fmt"
	"strconv"
)

// Address is the 16-bit arbitration address of a node or a broadcast group.
type Address uint16

// High returns the byte transmitted first.
func (a Address) High() byte {
	return byte(a >> 8)
}

// Low returns the byte transmitted second.
func (a Address) Low() byte {
	return byte(a)
}

// IsValid reports whether the address can appear on the wire.
func (a Address) IsValid() bool {
	return uint16(a) != Terminator
}

// String implements fmt.Stringer and flag.Value.
func (a Address) String() string {
	return fmt.Sprintf("0x%04x", uint16(a))
}

// Set implements flag.Value, accepting hex (0x prefixed) or decimal.
func (a *Address) Set(s string) error {
	v, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	return a.Set(string(text))
}

// ParseAddress parses an address in hex (0x prefixed) or decimal notation.
func ParseAddress(s string) (Address, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %v", s, err)
	}
	if a := Address(v); a.IsValid() {
		return a, nil
	}
	return 0, fmt.Errorf("invalid address %q: reserved for terminator", s)
}

// Identity holds the addresses a node uses to send and filter packets.
type Identity struct {
	Self      Address
	Peer      Address
	Broadcast Address
}

// Accepts reports whether a packet addressed to dest passes the address filter.
// High and low bytes are matched independently against self and broadcast.
func (id Identity) Accepts(dest Address) bool {
	return id.acceptsHigh(dest.High()) && id.acceptsLow(dest.Low())
}

func (id Identity) acceptsHigh(b byte) bool {
	return b == id.Self.High() || b == id.Broadcast.High()
}

func (id Identity) acceptsLow(b byte) bool {
	return b == id.Self.Low() || b == id.Broadcast.Low()
}
