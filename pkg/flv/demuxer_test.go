package flv

import (
	"testing"

	"flvmux/pkg/av"

	"github.com/stretchr/testify/require"
)

func TestDemux(t *testing.T) {
	m := newTestMuxer(t, nil)

	out, err := m.MuxVideo(&av.Packet{Data: annexB(testSPS, testPPS, testIDR), TimeStamp: 100})
	require.NoError(t, err)

	pkts, err := NewDemuxer().Demux(out)
	require.NoError(t, err)
	require.Len(t, pkts, 2)

	for _, pkt := range pkts {
		require.True(t, pkt.IsVideo)
		require.Equal(t, uint32(100), pkt.TimeStamp)

		hdr, ok := pkt.Header.(av.VideoPacketHeader)
		require.True(t, ok)
		require.True(t, hdr.IsKeyFrame())
		require.Equal(t, uint8(av.VIDEO_H264), hdr.CodecID())
	}
	require.True(t, pkts[0].Header.(av.VideoPacketHeader).IsSeq())
	require.False(t, pkts[1].Header.(av.VideoPacketHeader).IsSeq())
}

func TestDemuxHdr(t *testing.T) {
	pkt := &av.Packet{Data: []byte{0xaf, 0x01, 0x21}, IsAudio: true}
	require.NoError(t, NewDemuxer().DemuxHdr(pkt))

	hdr, ok := pkt.Header.(av.AudioPacketHeader)
	require.True(t, ok)
	require.Equal(t, uint8(av.SOUND_AAC), hdr.SoundFormat())
	require.Equal(t, uint8(av.AAC_RAW), hdr.AACPacketType())

	pkt = &av.Packet{Data: []byte{0x27, 0x01}, IsVideo: true}
	require.Error(t, NewDemuxer().DemuxHdr(pkt))
	require.Nil(t, pkt.Header)
}
