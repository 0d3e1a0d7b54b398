package ubx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	testCases := []struct {
		name  string
		bytes []byte
		a, b  byte
	}{
		{"empty", nil, 0, 0},
		{"single byte", []byte{0x42}, 0x42, 0x42},
		{"two bytes", []byte{0x01, 0x02}, 0x03, 0x04},
		{"wraps at 8 bits", []byte{0xFF, 0xFF, 0xFF}, 0xFD, 0xFA},
		{"order dependent", []byte{0x02, 0x01}, 0x03, 0x05},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var ck Checksum
			ck.UpdateMany(tc.bytes)
			a, b := ck.Sum()
			require.Equal(t, tc.a, a)
			require.Equal(t, tc.b, b)
		})
	}
}

func TestChecksumDeterministic(t *testing.T) {
	input := []byte{0x06, 0x24, 0x10, 0x00, 0xDE, 0xAD, 0xBE, 0xEF}
	var first Checksum
	first.UpdateMany(input)

	// Byte-at-a-time and bulk folds agree, and reset restores the
	// initial state.
	var second Checksum
	for _, v := range input {
		second.Update(v)
	}
	require.Equal(t, first, second)

	second.Reset()
	a, b := second.Sum()
	require.Zero(t, a)
	require.Zero(t, b)

	second.UpdateMany(input)
	require.Equal(t, first, second)
}
