package webm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMuxStartsWithEBMLHeader(t *testing.T) {
	out := Mux(48000, 2, []byte("OpusHead-fake-header"), nil)

	require := []byte{0x1A, 0x45, 0xDF, 0xA3}
	assert.Equal(t, require, out[:4])
}

func TestMuxEmbedsCodecPrivateVerbatim(t *testing.T) {
	header := []byte("OpusHead-marker-xyz")
	out := Mux(48000, 2, header, nil)

	assert.Contains(t, string(out), string(header))
}

func TestMuxWithPacketsIsLargerThanWithout(t *testing.T) {
	header := []byte("h")

	empty := Mux(48000, 1, header, nil)
	withPackets := Mux(48000, 1, header, []Packet{
		{TimecodeMs: 0, Data: []byte{1, 2, 3, 4, 5}},
		{TimecodeMs: 20, Data: []byte{6, 7, 8}},
	})

	assert.Greater(t, len(withPackets), len(empty))
}

func TestEncodeVintEncodesSmallValues(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 16383, 16384} {
		out := encodeVint(v)
		assert.NotEmpty(t, out)
	}
}
