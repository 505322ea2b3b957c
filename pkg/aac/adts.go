// Package aac parses ADTS framed AAC audio.
package aac

import (
	"flvmux/pkg/av"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedADTSSync is returned when a frame does not start with the
	// ADTS sync word or declares an impossible length.
	ErrMalformedADTSSync = errors.New("aac: malformed adts sync")

	// ErrUndersizedBuffer is returned when a buffer is shorter than an ADTS
	// header or than the frame length the header declares.
	ErrUndersizedBuffer = av.ErrUndersizedBuffer
)

const (
	// ADTSHeaderSize is the header size without CRC.
	ADTSHeaderSize = 7

	adtsCRCSize = 2
)

var sampleRates = [...]int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

// SampleRate maps a sampling frequency index to Hz, 0 if the index is
// reserved.
func SampleRate(index uint8) int {
	if int(index) >= len(sampleRates) {
		return 0
	}
	return sampleRates[index]
}

/*
 * ADTS fixed + variable header, 56 bits:
 *
 *   syncword                  12  0xFFF
 *   id                         1
 *   layer                      2
 *   protection_absent          1  0 = 2 byte crc follows the header
 *   profile                    2  audio object type - 1
 *   sampling_frequency_index   4
 *   private_bit                1
 *   channel_configuration      3
 *   original_copy              1
 *   home                       1
 *   copyright_id_bit           1
 *   copyright_id_start         1
 *   frame_length              13  header included
 *   buffer_fullness           11
 *   number_of_raw_data_blocks  2
 */
type ADTSHeader struct {
	ProtectionAbsent       bool
	Profile                uint8
	SamplingFrequencyIndex uint8
	ChannelConfiguration   uint8
	FrameLength            int
}

// HeaderSize is 7, or 9 when a crc is present.
func (h *ADTSHeader) HeaderSize() int {
	if h.ProtectionAbsent {
		return ADTSHeaderSize
	}
	return ADTSHeaderSize + adtsCRCSize
}

// AudioSpecificConfig returns the decoder configuration carried by the
// header.
func (h *ADTSHeader) AudioSpecificConfig() AudioSpecificConfig {
	return AudioSpecificConfig{
		ObjectType:             h.Profile,
		SamplingFrequencyIndex: h.SamplingFrequencyIndex,
		ChannelConfiguration:   h.ChannelConfiguration,
	}
}

// ParseADTS parses the header of the first frame in b and validates that the
// whole frame is present.
func ParseADTS(b []byte) (*ADTSHeader, error) {
	if len(b) < ADTSHeaderSize {
		return nil, errors.Wrapf(ErrUndersizedBuffer, "len=%d", len(b))
	}

	if b[0] != 0xFF || (b[1]&0xF0) != 0xF0 {
		return nil, errors.Wrapf(ErrMalformedADTSSync, "got %02x %02x", b[0], b[1])
	}

	h := &ADTSHeader{
		ProtectionAbsent:       (b[1] & 0x01) == 1,
		Profile:                (b[2] & 0xC0) >> 6,
		SamplingFrequencyIndex: (b[2] & 0x3C) >> 2,
		ChannelConfiguration:   (b[2]&0x01)<<2 | (b[3]&0xC0)>>6,
		FrameLength:            int(b[3]&0x03)<<11 | int(b[4])<<3 | int(b[5]&0xE0)>>5,
	}

	if h.FrameLength < h.HeaderSize() {
		return nil, errors.Wrapf(ErrMalformedADTSSync, "frame length %d shorter than header", h.FrameLength)
	}

	if h.FrameLength > len(b) {
		return nil, errors.Wrapf(ErrUndersizedBuffer, "frame length %d, len=%d", h.FrameLength, len(b))
	}

	return h, nil
}

// Frame returns the first ADTS frame of b, header included.
func (h *ADTSHeader) Frame(b []byte) []byte {
	return b[:h.FrameLength]
}

// Payload returns the raw AAC data of the first ADTS frame of b.
func (h *ADTSHeader) Payload(b []byte) []byte {
	return b[h.HeaderSize():h.FrameLength]
}
