package flv

import (
	"bytes"
	"io"
	"testing"

	"flvmux/pkg/av"

	"github.com/gwuhaolin/livego/protocol/amf"
	"github.com/stretchr/testify/require"
)

func decodeMetaData(t *testing.T, body []byte) (string, amf.Object) {
	dec := &amf.Decoder{}
	vs, err := dec.DecodeBatch(bytes.NewReader(body), amf.Version(amf.AMF0))
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	require.Len(t, vs, 2)

	name, ok := vs[0].(string)
	require.True(t, ok)
	obj, ok := vs[1].(amf.Object)
	require.True(t, ok)
	return name, obj
}

func TestMetaDataDefault(t *testing.T) {
	m := newTestMuxer(t, nil)
	hdr := m.Header()

	require.True(t, hdr.IsMetaData)
	require.Equal(t, av.PacketTypeTags, hdr.Type)

	types, bodies := requireValidTags(t, hdr.Data)
	require.Equal(t, []uint8{av.TAG_SCRIPTDATAAMF0}, types)
	require.Equal(t, 86, len(bodies[0]))

	// keys are written in a fixed order
	require.Equal(t, []byte{0x02, 0x00, 0x0a}, bodies[0][:3])
	require.Equal(t, "onMetaData", string(bodies[0][3:13]))
	require.Equal(t, []byte{0x08, 0x00, 0x00, 0x00, 0x03, 0x00, 0x08}, bodies[0][13:20])
	require.Equal(t, "duration", string(bodies[0][20:28]))
	require.Equal(t, []byte{0x00, 0x00, 0x09}, bodies[0][83:])

	name, obj := decodeMetaData(t, bodies[0])
	require.Equal(t, "onMetaData", name)
	require.Equal(t, amf.Object{
		"duration":     float64(0),
		"videocodecid": float64(7),
		"audiocodecid": float64(10),
	}, obj)
}

func TestMetaDataOptionalEntries(t *testing.T) {
	m := newTestMuxer(t, &Config{
		Width:           1280,
		Height:          720,
		FrameRate:       25,
		AudioSampleRate: 44100,
	})

	_, bodies := requireValidTags(t, m.Header().Data)
	_, obj := decodeMetaData(t, bodies[0])
	require.Equal(t, amf.Object{
		"duration":        float64(0),
		"videocodecid":    float64(7),
		"audiocodecid":    float64(10),
		"width":           float64(1280),
		"height":          float64(720),
		"videoframerate":  float64(25),
		"audiosamplerate": float64(44100),
	}, obj)
}
