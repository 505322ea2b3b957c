package flv

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testSPS = []byte{
		0x67, 0x64, 0x00, 0x0c, 0xac, 0x3b, 0x50, 0xb0,
		0x4b, 0x42, 0x00, 0x00, 0x03, 0x00, 0x02, 0x00,
		0x00, 0x03, 0x00, 0x3d, 0x08,
	}
	testPPS    = []byte{0x68, 0xee, 0x3c, 0x80}
	testIDR    = []byte{0x65, 0x88, 0x84, 0x00, 0x33, 0xff}
	testNonIDR = []byte{0x41, 0x9a, 0x21, 0x6c}
	testAUD    = []byte{0x09, 0xf0}
)

func annexB(units ...[]byte) []byte {
	var b []byte
	for _, u := range units {
		b = append(b, 0x00, 0x00, 0x00, 0x01)
		b = append(b, u...)
	}
	return b
}

func adtsFrame(profile, freqIndex, channels uint8, payload []byte) []byte {
	frameLen := 7 + len(payload)

	b := make([]byte, frameLen)
	b[0] = 0xFF
	b[1] = 0xF1
	b[2] = profile<<6 | freqIndex<<2 | channels>>2
	b[3] = (channels&0x03)<<6 | byte(frameLen>>11)&0x03
	b[4] = byte(frameLen >> 3)
	b[5] = byte(frameLen&0x07)<<5 | 0x1F
	b[6] = 0xFC
	copy(b[7:], payload)
	return b
}

// requireValidTags walks b tag by tag without ParseTag and checks the
// envelope invariants: data size matches the body, stream id is zero and
// the trailer is 11 + data size. It returns the tag types and bodies.
func requireValidTags(t *testing.T, b []byte) ([]uint8, [][]byte) {
	var types []uint8
	var bodies [][]byte

	for len(b) > 0 {
		require.GreaterOrEqual(t, len(b), TagHeaderLen+PrevTagSizeLen)
		size := int(b[1])<<16 | int(b[2])<<8 | int(b[3])
		require.GreaterOrEqual(t, len(b), TagHeaderLen+size+PrevTagSizeLen)
		require.Equal(t, []byte{0x00, 0x00, 0x00}, b[8:11])
		require.Equal(t, uint32(TagHeaderLen+size), binary.BigEndian.Uint32(b[TagHeaderLen+size:]))

		types = append(types, b[0])
		bodies = append(bodies, b[TagHeaderLen:TagHeaderLen+size])
		b = b[TagHeaderLen+size+PrevTagSizeLen:]
	}

	return types, bodies
}

func newTestMuxer(t *testing.T, conf *Config) *Muxer {
	m, err := Open(conf)
	require.NoError(t, err)
	return m
}
