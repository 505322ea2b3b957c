package flv

import (
	"bytes"
	"encoding/binary"

	"github.com/gwuhaolin/livego/protocol/amf"
	"github.com/pkg/errors"
)

const (
	amf0EcmaArrayMarker = 0x08
	amf0ObjectEndMarker = 0x09

	metaDataName = "onMetaData"
)

type metaEntry struct {
	key string
	val float64
}

// metaDataEntries lists the onMetaData keys in the order they are written.
// duration, videocodecid and audiocodecid are always present.
func (c *Config) metaDataEntries() []metaEntry {
	entries := []metaEntry{
		{"duration", 0},
		{"videocodecid", VideoCodecAVC},
		{"audiocodecid", AudioCodecAAC},
	}

	optional := []metaEntry{
		{"width", float64(c.Width)},
		{"height", float64(c.Height)},
		{"videoframerate", c.FrameRate},
		{"audiosamplerate", float64(c.AudioSampleRate)},
		{"audiochannels", float64(c.AudioChannels)},
	}
	for _, e := range optional {
		if e.val != 0 {
			entries = append(entries, e)
		}
	}

	return entries
}

// buildMetaData encodes the script data body:
// AMF0 string "onMetaData" followed by an AMF0 ECMA array.
func buildMetaData(entries []metaEntry) ([]byte, error) {
	enc := &amf.Encoder{}
	buf := bytes.NewBuffer(nil)

	if _, err := enc.EncodeAmf0String(buf, metaDataName, true); err != nil {
		return nil, errors.Wrap(err, "encode metadata name")
	}

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(entries)))
	buf.WriteByte(amf0EcmaArrayMarker)
	buf.Write(count[:])

	for _, e := range entries {
		// property names carry no type marker
		if _, err := enc.EncodeAmf0String(buf, e.key, false); err != nil {
			return nil, errors.Wrapf(err, "encode metadata key %s", e.key)
		}
		if _, err := enc.EncodeAmf0Number(buf, e.val, true); err != nil {
			return nil, errors.Wrapf(err, "encode metadata value %s", e.key)
		}
	}

	buf.Write([]byte{0x00, 0x00, amf0ObjectEndMarker})

	return buf.Bytes(), nil
}
