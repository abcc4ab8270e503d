package wire

import "fmt"

// DefaultReserve is the reserve byte sent when none is configured.
const DefaultReserve byte = 0x55

// collisionFlip is toggled in the header word while the checksum equals the terminator.
const collisionFlip uint16 = 0x8000

// Frame is the content carried by a packet.
type Frame struct {
	Address Address
	Reserve byte
	Payload []byte
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return fmt.Sprintf("%s reserve=0x%02x len=%d % x", f.Address, f.Reserve, len(f.Payload), f.Payload)
}

// Encode assembles the unstuffed packet for the frame.
func (f *Frame) Encode(dst []uint16) ([]uint16, error) {
	return EncodePacket(dst, f.Address, f.Reserve, f.Payload)
}

// EncodePacket assembles an unstuffed packet into dst, reusing dst when it is
// large enough: address word, header word, payload words, checksum word and
// the terminator. The payload must have an even length of at most
// MaxPayloadSize bytes and no word may equal the terminator.
func EncodePacket(dst []uint16, dest Address, reserve byte, payload []byte) ([]uint16, error) {
	if len(payload) > MaxPayloadSize || len(payload)&1 != 0 {
		return nil, ErrInvalidPayload
	}
	if !dest.IsValid() {
		return nil, ErrReservedWord
	}
	n := len(payload)>>1 + 4
	if cap(dst) < n {
		dst = make([]uint16, n)
	} else {
		dst = dst[:n]
	}
	dst[0] = uint16(dest)
	dst[1] = uint16(reserve)<<8 | uint16(len(payload))
	for i := 0; i < len(payload); i += 2 {
		w := uint16(payload[i])<<8 | uint16(payload[i+1])
		if w == Terminator {
			return nil, ErrReservedWord
		}
		dst[2+i>>1] = w
	}
	body := dst[:n-2]
	crc := checksumWords(body)
	for crc == Terminator {
		body[1] ^= collisionFlip
		crc = checksumWords(body)
	}
	dst[n-2], dst[n-1] = crc, Terminator
	return dst, nil
}

// PacketBytes returns the packet words in wire byte order.
func PacketBytes(words []uint16) []byte {
	b := make([]byte, len(words)*2)
	for i, w := range words {
		b[i*2], b[i*2+1] = byte(w>>8), byte(w)
	}
	return b
}

// Validate checks an unstuffed packet on behalf of the node with the given
// identity: address bytes, declared length, then checksum. Bytes beyond the
// end of unstuffed read as zero.
func Validate(id Identity, unstuffed []byte) error {
	var pkt [MaxPacketLen]byte
	copy(pkt[:], unstuffed)
	if !id.acceptsHigh(pkt[0]) {
		return reject(ErrInvalidAddress, "high byte 0x%02x", pkt[0])
	}
	if !id.acceptsLow(pkt[1]) {
		return reject(ErrInvalidAddress, "low byte 0x%02x", pkt[1])
	}
	_, err := decode(&pkt)
	return err
}

// DecodeFrame parses an unstuffed packet without address filtering.
func DecodeFrame(unstuffed []byte) (*Frame, error) {
	var pkt [MaxPacketLen]byte
	copy(pkt[:], unstuffed)
	return decode(&pkt)
}

func decode(pkt *[MaxPacketLen]byte) (*Frame, error) {
	size := int(pkt[3])
	if size > MaxPayloadSize {
		return nil, reject(ErrInvalidLength, "declared %d bytes", size)
	}
	end := size + 4
	crc := Checksum(pkt[:end])
	if pkt[end] != byte(crc>>8) || pkt[end+1] != byte(crc) {
		return nil, reject(ErrChecksumMismatch, "got 0x%02x%02x, computed 0x%04x", pkt[end], pkt[end+1], crc)
	}
	return &Frame{
		Address: Address(pkt[0])<<8 | Address(pkt[1]),
		Reserve: pkt[2],
		Payload: append([]byte{}, pkt[4:end]...),
	}, nil
}
