package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	testCases := []struct {
		in     string
		expect Address
		ok     bool
	}{
		{"0x3234", 0x3234, true},
		{"12852", 0x3234, true},
		{"0", 0, true},
		{"0xffff", 0, false},
		{"0x10000", 0, false},
		{"peer", 0, false},
	}
	for _, tc := range testCases {
		a, err := ParseAddress(tc.in)
		if !tc.ok {
			require.Errorf(t, err, "input %q", tc.in)
			continue
		}
		require.NoErrorf(t, err, "input %q", tc.in)
		require.Equalf(t, tc.expect, a, "input %q", tc.in)
	}
}

func TestAddressText(t *testing.T) {
	var a Address
	require.NoError(t, a.UnmarshalText([]byte("0x4234")))
	require.Equal(t, Address(0x4234), a)
	require.Equal(t, "0x4234", a.String())
	require.Equal(t, byte(0x42), a.High())
	require.Equal(t, byte(0x34), a.Low())
	require.Error(t, a.Set("0xffff"))
	require.Equal(t, Address(0x4234), a)
}
