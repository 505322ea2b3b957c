package rtmp

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func newMessage(csid uint32, typeID RtmpMsgTypeID, ts uint32, data []byte) *ChunkStream {
	cs := NewChunkStream()
	cs.Csid = csid
	cs.MsgTypeID = typeID
	cs.MsgStreamID = 1
	cs.TimeStamp = ts
	cs.ChunkData = data
	cs.MsgLength = uint32(len(data))
	return cs
}

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestWriteChunksSingle(t *testing.T) {
	var buf bytes.Buffer
	cs := newMessage(csidAudio, MsgAudioMessage, 0x10, []byte{0xaf, 0x01, 0x02})
	require.NoError(t, cs.WriteChunks(&buf, DefaultChunkSize))

	require.Equal(t, []byte{
		0x04,
		0x00, 0x00, 0x10,
		0x00, 0x00, 0x03,
		0x08,
		0x01, 0x00, 0x00, 0x00,
		0xaf, 0x01, 0x02,
	}, buf.Bytes())
}

func TestWriteChunksSplit(t *testing.T) {
	var buf bytes.Buffer
	data := payload(300)
	cs := newMessage(csidVideo, MsgVideoMessage, 40, data)
	require.NoError(t, cs.WriteChunks(&buf, 128))

	b := buf.Bytes()
	require.Len(t, b, 12+300+2)
	require.Equal(t, data[:128], b[12:140])
	require.Equal(t, byte(0xc6), b[140])
	require.Equal(t, data[128:256], b[141:269])
	require.Equal(t, byte(0xc6), b[269])
	require.Equal(t, data[256:], b[270:])
}

func TestWriteChunksErrors(t *testing.T) {
	cs := newMessage(csidAudio, MsgAudioMessage, 0, []byte{0x01})
	require.Error(t, cs.WriteChunks(io.Discard, 0))

	cs.MsgLength = 5
	require.Error(t, cs.WriteChunks(io.Discard, 128))
}

func TestChunkRoundTrip(t *testing.T) {
	for _, ca := range []struct {
		name      string
		csid      uint32
		ts        uint32
		size      int
		chunkSize uint32
	}{
		{"empty", csidData, 0, 0, 128},
		{"one chunk", csidAudio, 23, 100, 128},
		{"exact chunk", csidAudio, 23, 128, 128},
		{"many chunks", csidVideo, 1000, 1000, 128},
		{"large chunk size", csidVideo, 1000, 1000, 4096},
		{"extended timestamp", csidVideo, 0x01000000, 400, 128},
		{"timestamp at limit", csidVideo, 0xffffff, 200, 128},
		{"two byte csid", 100, 5, 300, 128},
		{"three byte csid", 400, 5, 300, 128},
	} {
		t.Run(ca.name, func(t *testing.T) {
			var buf bytes.Buffer
			data := payload(ca.size)
			in := newMessage(ca.csid, MsgVideoMessage, ca.ts, data)
			require.NoError(t, in.WriteChunks(&buf, ca.chunkSize))

			r := NewChunkReader(&buf, ca.chunkSize)
			out, err := r.ReadChunkStream()
			require.NoError(t, err)
			require.Equal(t, ca.csid, out.Csid)
			require.Equal(t, ca.ts, out.TimeStamp)
			require.Equal(t, MsgVideoMessage, out.MsgTypeID)
			require.Equal(t, uint32(1), out.MsgStreamID)
			require.Equal(t, uint32(ca.size), out.MsgLength)
			require.Equal(t, data, out.ChunkData)

			_, err = r.ReadChunkStream()
			require.Equal(t, io.EOF, err)
		})
	}
}

func TestExtendedTimeStampOnEveryChunk(t *testing.T) {
	var buf bytes.Buffer
	cs := newMessage(csidVideo, MsgVideoMessage, 0x01020304, payload(200))
	require.NoError(t, cs.WriteChunks(&buf, 128))

	b := buf.Bytes()
	require.Equal(t, []byte{0xff, 0xff, 0xff}, b[1:4])
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, b[12:16])

	next := 16 + 128
	require.Equal(t, byte(0xc6), b[next])
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, b[next+1:next+5])
	require.Len(t, b, next+5+72)
}

func TestChunkReaderInterleaved(t *testing.T) {
	var buf bytes.Buffer
	video := newMessage(csidVideo, MsgVideoMessage, 40, payload(200))
	audio := newMessage(csidAudio, MsgAudioMessage, 23, payload(10))

	var v, a bytes.Buffer
	require.NoError(t, video.WriteChunks(&v, 128))
	require.NoError(t, audio.WriteChunks(&a, 128))

	// first video chunk, the whole audio message, then the rest of the video
	vb := v.Bytes()
	buf.Write(vb[:12+128])
	buf.Write(a.Bytes())
	buf.Write(vb[12+128:])

	r := NewChunkReader(&buf, 128)
	out, err := r.ReadChunkStream()
	require.NoError(t, err)
	require.Equal(t, MsgAudioMessage, out.MsgTypeID)
	require.Equal(t, payload(10), out.ChunkData)

	out, err = r.ReadChunkStream()
	require.NoError(t, err)
	require.Equal(t, MsgVideoMessage, out.MsgTypeID)
	require.Equal(t, payload(200), out.ChunkData)
}

func TestChunkReaderSetChunkSize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewChunkStream().SetControlMessage(MsgSetChunkSize, 4, 4096).WriteChunks(&buf, DefaultChunkSize))
	require.NoError(t, newMessage(csidVideo, MsgVideoMessage, 0, payload(1000)).WriteChunks(&buf, 4096))

	r := NewChunkReader(&buf, 0)
	out, err := r.ReadChunkStream()
	require.NoError(t, err)
	require.Equal(t, MsgSetChunkSize, out.MsgTypeID)
	require.Equal(t, csidControl, out.Csid)
	require.Equal(t, []byte{0x00, 0x00, 0x10, 0x00}, out.ChunkData)

	out, err = r.ReadChunkStream()
	require.NoError(t, err)
	require.Equal(t, payload(1000), out.ChunkData)
}

func TestChunkReaderTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newMessage(csidVideo, MsgVideoMessage, 0, payload(100)).WriteChunks(&buf, 128))

	r := NewChunkReader(bytes.NewReader(buf.Bytes()[:50]), 128)
	_, err := r.ReadChunkStream()
	require.Equal(t, io.ErrUnexpectedEOF, err)
}
