package flv

import (
	"encoding/binary"
	"fmt"

	"flvmux/pkg/av"

	"github.com/pkg/errors"
)

const (
	TagHeaderLen     = 11
	PrevTagSizeLen   = 4
	VideoTagHdrLen   = 5 // frame type/codec, avc packet type, composition time
	AudioTagHdrLen   = 2 // sound flags, aac packet type
	maxTagDataLength = 1<<24 - 1
)

var (
	ErrShortTag       = errors.New("flv: short tag")
	ErrTrailerInvalid = errors.New("flv: previous tag size mismatch")
)

type flvTag struct {
	TagType   uint8  // 1byte
	DataSize  uint32 // 3bytes
	TimeStamp uint32 // 3bytes + 1byte extended
	StreamID  uint32 // 3bytes
}

type mediaTag struct {
	/*
	 * soundFormat: UB[4]
	 * 2 = MP3, 10 = AAC, 11 = Speex ...
	 */
	soundFormat uint8

	/*
	 * SoundRate: UB[2]
	 * 0 = 5.5-kHz, 1 = 11-kHz, 2 = 22-kHz, 3 = 44-kHz
	 */
	SoundRate uint8

	// SoundSize: UB[1] 0 = snd8Bit, 1 = snd16Bit
	SoundSize uint8

	// SoundType: UB[1] 0 = sndMono, 1 = sndStereo
	SoundType uint8

	aacPacketType uint8 // 0 = AAC sequence header 1 = AAC raw

	/*
	 * 1: keyframe (for AVC, a seekable frame)
	 * 2: inter frame (for AVC, a non- seekable frame)
	 */
	FrameType uint8

	// 7: AVC (H.264)
	codecID uint8

	/*
	 * 0: AVC sequence header
	 * 1: AVC NALU
	 * 2: AVC end of sequence
	 */
	AvcPacketType uint8

	compositionTime int32
}

// Tag is one parsed flv tag. Body aliases the buffer it was parsed from.
type Tag struct {
	flvTag   flvTag
	mediaTag mediaTag

	Body []byte
}

var (
	_ av.AudioPacketHeader = (*Tag)(nil)
	_ av.VideoPacketHeader = (*Tag)(nil)
)

func (t *Tag) TagType() uint8 {
	return t.flvTag.TagType
}

func (t *Tag) DataSize() uint32 {
	return t.flvTag.DataSize
}

func (t *Tag) TimeStamp() uint32 {
	return t.flvTag.TimeStamp
}

func (t *Tag) StreamID() uint32 {
	return t.flvTag.StreamID
}

func (t *Tag) IsAudio() bool {
	return t.flvTag.TagType == av.TAG_AUDIO
}

func (t *Tag) IsVideo() bool {
	return t.flvTag.TagType == av.TAG_VIDEO
}

func (t *Tag) IsMetaData() bool {
	return t.flvTag.TagType == av.TAG_SCRIPTDATAAMF0
}

// Audio CodecID
func (t *Tag) SoundFormat() uint8 {
	return t.mediaTag.soundFormat
}

func (t *Tag) SoundRate() uint8 {
	return t.mediaTag.SoundRate
}

func (t *Tag) SoundType() uint8 {
	return t.mediaTag.SoundType
}

// Audio AAC Packet Type. 0 = AAC sequence header 1 = AAC raw
func (t *Tag) AACPacketType() uint8 {
	return t.mediaTag.aacPacketType
}

func (t *Tag) FrameType() uint8 {
	return t.mediaTag.FrameType
}

func (t *Tag) AVCPacketType() uint8 {
	return t.mediaTag.AvcPacketType
}

func (t *Tag) IsKeyFrame() bool {
	return t.mediaTag.FrameType == av.KEY_FRAME
}

func (t *Tag) IsSeq() bool {
	if t.IsVideo() {
		return t.IsKeyFrame() && t.mediaTag.AvcPacketType == av.AVC_SEQHDR
	}
	return t.mediaTag.soundFormat == av.SOUND_AAC && t.mediaTag.aacPacketType == av.AAC_SEQHDR
}

// Video CodecID
func (t *Tag) CodecID() uint8 {
	return t.mediaTag.codecID
}

func (t *Tag) CompositionTime() int32 {
	return t.mediaTag.compositionTime
}

// Payload returns the body without the audio/video tag header.
func (t *Tag) Payload() []byte {
	switch {
	case t.IsVideo() && len(t.Body) >= VideoTagHdrLen:
		return t.Body[VideoTagHdrLen:]
	case t.IsAudio() && t.mediaTag.soundFormat == av.SOUND_AAC && len(t.Body) >= AudioTagHdrLen:
		return t.Body[AudioTagHdrLen:]
	case t.IsAudio() && len(t.Body) >= 1:
		return t.Body[1:]
	}
	return t.Body
}

// ParseTag parses the first framed tag of b (envelope, body and trailer) and
// returns it with the number of bytes consumed.
func ParseTag(b []byte) (*Tag, int, error) {
	if len(b) < TagHeaderLen+PrevTagSizeLen {
		return nil, 0, errors.Wrapf(ErrShortTag, "len=%d", len(b))
	}

	t := &Tag{}
	t.flvTag.TagType = b[0]
	t.flvTag.DataSize = getU24BE(b[1:4])
	t.flvTag.TimeStamp = getU24BE(b[4:7]) | uint32(b[7])<<24
	t.flvTag.StreamID = getU24BE(b[8:11])

	n := TagHeaderLen + int(t.flvTag.DataSize) + PrevTagSizeLen
	if len(b) < n {
		return nil, 0, errors.Wrapf(ErrShortTag, "data size %d, len=%d", t.flvTag.DataSize, len(b))
	}

	t.Body = b[TagHeaderLen : TagHeaderLen+int(t.flvTag.DataSize)]

	prev := binary.BigEndian.Uint32(b[n-PrevTagSizeLen : n])
	if prev != uint32(TagHeaderLen)+t.flvTag.DataSize {
		return nil, 0, errors.Wrapf(ErrTrailerInvalid, "got %d, data size %d", prev, t.flvTag.DataSize)
	}

	switch t.flvTag.TagType {
	case av.TAG_AUDIO, av.TAG_VIDEO:
		if _, err := t.decodeMediaTagHeader(t.Body, t.IsVideo()); err != nil {
			return nil, 0, err
		}
	}

	return t, n, nil
}

// SplitTags parses every tag of a muxer output.
func SplitTags(b []byte) ([]*Tag, error) {
	var tags []*Tag
	for len(b) > 0 {
		t, n, err := ParseTag(b)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
		b = b[n:]
	}
	return tags, nil
}

func (t *Tag) decodeMediaTagHeader(b []byte, isVideo bool) (n int, err error) {
	if isVideo {
		return t.decodeVideoHeader(b)
	}

	return t.decodeAudioHeader(b)
}

func (t *Tag) decodeAudioHeader(b []byte) (n int, err error) {
	if len(b) < 1 {
		err = fmt.Errorf("invalid Audio Data len=%d", len(b))
		return
	}

	flags := b[0]
	t.mediaTag.soundFormat = flags >> 4
	t.mediaTag.SoundRate = (flags >> 2) & 0x3
	t.mediaTag.SoundSize = (flags >> 1) & 0x01
	t.mediaTag.SoundType = flags & 0x01
	n = 1

	switch t.mediaTag.soundFormat {
	case av.SOUND_AAC:
		if len(b) < AudioTagHdrLen {
			err = fmt.Errorf("invalid AAC Audio Data len=%d", len(b))
			return
		}
		t.mediaTag.aacPacketType = b[1]
		n++
	}

	return
}

func (t *Tag) decodeVideoHeader(b []byte) (n int, err error) {
	if len(b) < VideoTagHdrLen {
		err = fmt.Errorf("invalid Video Data len=%d", len(b))
		return
	}

	flags := b[0]
	t.mediaTag.FrameType = flags >> 4
	t.mediaTag.codecID = flags & 0xf
	n = 1

	if t.mediaTag.FrameType == av.INTER_FRAME || t.mediaTag.FrameType == av.KEY_FRAME {
		t.mediaTag.AvcPacketType = b[1]
		// SI24
		ct := int32(getU24BE(b[2:5]))
		if ct&0x800000 != 0 {
			ct -= 1 << 24
		}
		t.mediaTag.compositionTime = ct
		n += 4
	}

	return
}
