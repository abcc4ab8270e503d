package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var testIdentity = Identity{Self: 0x3234, Peer: 0x4234, Broadcast: 0x5555}

func TestEncodePacket(t *testing.T) {
	testCases := []struct {
		name    string
		dest    Address
		reserve byte
		payload []byte
		expect  []uint16
	}{
		{
			"empty payload",
			0x3234, 0x55, nil,
			[]uint16{0x3234, 0x5500, 0x95bb, Terminator},
		},
		{
			"payload",
			0x4234, 0x55, []byte{0x13, 0x35, 0x56, 0x78, 0x90, 0x12, 0x34, 0x56, 0x78, 0x90},
			[]uint16{0x4234, 0x550a, 0x1335, 0x5678, 0x9012, 0x3456, 0x7890, 0xb2b0, Terminator},
		},
		{
			"checksum collision flips header",
			0x4234, 0x55, []byte{0xbf, 0x0b},
			[]uint16{0x4234, 0xd502, 0xbf0b, 0x7fc0, Terminator},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			words, err := EncodePacket(nil, tc.dest, tc.reserve, tc.payload)
			require.NoError(t, err)
			require.Equal(t, tc.expect, words)
		})
	}
}

func TestEncodePacketInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		dest    Address
		payload []byte
		err     error
	}{
		{"odd payload", 0x4234, []byte{1, 2, 3}, ErrInvalidPayload},
		{"payload too large", 0x4234, make([]byte, MaxPayloadSize+2), ErrInvalidPayload},
		{"terminator address", 0xffff, nil, ErrReservedWord},
		{"terminator payload word", 0x4234, []byte{0x12, 0x34, 0xff, 0xff}, ErrReservedWord},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EncodePacket(nil, tc.dest, DefaultReserve, tc.payload)
			require.Equal(t, tc.err, err)
		})
	}
}

func TestEncodeNeverProducesTerminatorChecksum(t *testing.T) {
	var buf []uint16
	var flipped int
	for v := 0; v < 0x10000; v++ {
		if v == 0xffff {
			continue
		}
		words, err := EncodePacket(buf, 0x4234, DefaultReserve, []byte{byte(v >> 8), byte(v)})
		require.NoError(t, err)
		require.NotEqual(t, Terminator, words[3])
		if words[1]&collisionFlip != 0 {
			flipped++
		}
		buf = words
	}
	require.NotZero(t, flipped)
}

func TestFrameEncode(t *testing.T) {
	f := &Frame{Address: 0x4234, Reserve: 0x55, Payload: []byte{0xbf, 0x0b}}
	words, err := f.Encode(nil)
	require.NoError(t, err)
	require.Equal(t, []uint16{0x4234, 0xd502, 0xbf0b, 0x7fc0, Terminator}, words)
	require.Equal(t, "0x4234 reserve=0x55 len=2 bf 0b", f.String())
}

func receive(t *testing.T, dest Address, payload []byte) []byte {
	words, err := EncodePacket(nil, dest, DefaultReserve, payload)
	require.NoError(t, err)
	stuffed, _ := Stuff(nil, words)
	return Unstuff(nil, stuffed)
}

func TestValidateAddress(t *testing.T) {
	testCases := []struct {
		dest   Address
		accept bool
	}{
		{0x3234, true},
		{0x5555, true},
		{0x3255, true},
		{0x5534, true},
		{0x3266, false},
		{0x4234, false},
		{0x6655, false},
		{0x3232, false},
	}
	for _, tc := range testCases {
		t.Run(tc.dest.String(), func(t *testing.T) {
			err := Validate(testIdentity, receive(t, tc.dest, []byte{1, 2}))
			if tc.accept {
				require.NoError(t, err)
				require.True(t, testIdentity.Accepts(tc.dest))
			} else {
				require.True(t, errors.Is(err, ErrInvalidAddress), "unexpected %v", err)
				require.False(t, testIdentity.Accepts(tc.dest))
			}
		})
	}
}

func TestValidateLength(t *testing.T) {
	pkt := make([]byte, 4+17)
	pkt[0], pkt[1], pkt[2], pkt[3] = 0x32, 0x34, 0x55, 17
	crc := Checksum(pkt)
	pkt = append(pkt, byte(crc>>8), byte(crc))

	err := Validate(testIdentity, pkt)
	require.True(t, errors.Is(err, ErrInvalidLength), "unexpected %v", err)
	_, err = DecodeFrame(pkt)
	require.True(t, errors.Is(err, ErrInvalidLength), "unexpected %v", err)
}

func TestValidateChecksum(t *testing.T) {
	payload := []byte{0x13, 0x35, 0x56, 0x78, 0x90, 0x12}
	pkt := receive(t, 0x3234, payload)
	require.NoError(t, Validate(testIdentity, pkt))
	for pos := 4 * 8; pos < (4+len(payload))*8; pos++ {
		corrupted := append([]byte{}, pkt...)
		corrupted[pos>>3] ^= 0x80 >> uint(pos&7)
		err := Validate(testIdentity, corrupted)
		require.Truef(t, errors.Is(err, ErrChecksumMismatch), "bit %d: unexpected %v", pos, err)
	}
}

func TestValidateTruncated(t *testing.T) {
	err := Validate(testIdentity, []byte{0x32, 0x34})
	require.True(t, errors.Is(err, ErrChecksumMismatch), "unexpected %v", err)
	err = Validate(testIdentity, nil)
	require.True(t, errors.Is(err, ErrInvalidAddress), "unexpected %v", err)
}

func TestDecodeFrame(t *testing.T) {
	payload := []byte{0xbf, 0x0b}
	f, err := DecodeFrame(receive(t, 0x4234, payload))
	require.NoError(t, err)
	require.Equal(t, Address(0x4234), f.Address)
	require.Equal(t, byte(0xd5), f.Reserve)
	require.Equal(t, payload, f.Payload)
}

func TestRejectError(t *testing.T) {
	err := reject(ErrChecksumMismatch, "got %d", 1)
	require.Equal(t, "wire: checksum mismatch: got 1", err.Error())
	require.True(t, errors.Is(err, ErrChecksumMismatch))
	require.Equal(t, "wire: invalid length", (&RejectError{Reason: ErrInvalidLength}).Error())
}
