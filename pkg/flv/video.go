package flv

import (
	"encoding/binary"

	"flvmux/pkg/av"
	"flvmux/pkg/h264"

	mch264 "github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	videoKeyFrameAVC   = av.KEY_FRAME<<4 | av.VIDEO_H264   // 0x17
	videoInterFrameAVC = av.INTER_FRAME<<4 | av.VIDEO_H264 // 0x27
)

// videoSeqHdr is what configTagIfNeeded hands back; it is applied to the
// context only once the whole call succeeded.
type videoSeqHdr struct {
	body []byte
	info *VideoInfo
}

// MuxVideo turns one H.264 access unit into zero, one or two video tags:
// an AVC sequence header when the unit starts with SPS/PPS and the context
// is not yet configured, then one NALU tag for the first coded slice.
func (m *Muxer) MuxVideo(in *av.Packet) (*av.Packet, error) {
	if m.closed {
		return nil, ErrClosed
	}

	logger := m.logger.WithField("event", "MuxVideo")
	buf := in.Data
	b := &tagBuilder{tagType: av.TAG_VIDEO, ts: in.TimeStamp}

	nalu, ok := firstVideoNALU(buf, 0)
	if !ok {
		logger.Tracef("no sps or slice found, size: %d", len(buf))
		return b.packet(in), nil
	}

	seqHdr, slice, hasSlice, err := m.configTagIfNeeded(buf, nalu, logger)
	if err != nil {
		m.observeError("video")
		logger.Error(err)
		return nil, err
	}

	if seqHdr != nil {
		if err := b.add(seqHdr.body); err != nil {
			m.observeError("video")
			logger.Error(err)
			return nil, err
		}
	}

	if hasSlice && !m.videoConfigured && seqHdr == nil {
		// undecodable without a sequence header
		logger.Warnf("coded slice before avc sequence header dropped, header: %02x", slice.Header(buf))
		return b.packet(in), nil
	}

	if hasSlice {
		if err := b.add(frameTag(buf, slice)); err != nil {
			m.observeError("video")
			logger.Error(err)
			return nil, err
		}
	}

	if seqHdr != nil {
		m.videoConfigured = true
		m.videoInfo = seqHdr.info
		logger.WithField("size", len(seqHdr.body)).Info("avc sequence header emitted")
	}

	out := b.packet(in)
	for _, tag := range b.tags {
		m.observe(av.TAG_VIDEO, len(tag))
	}
	logger.Tracef("pts: %d, dts: %d, tags: %d, size: %d", in.TimeStamp, in.DTS, len(b.tags), out.Size())

	return out, nil
}

// firstVideoNALU returns the first SPS or coded slice at or after cursor.
// Access unit delimiters, SEI and other units in front of it are skipped.
func firstVideoNALU(buf []byte, cursor int) (h264.NALU, bool) {
	for {
		n, ok := h264.NextNALU(buf, cursor)
		if !ok {
			return h264.NALU{}, false
		}

		hdr := n.Header(buf)
		if hdr == h264.SPSHeader || h264.IsSlice(hdr) {
			return n, true
		}
		cursor = n.Offset
	}
}

// firstSlice returns the first coded slice at or after cursor.
func firstSlice(buf []byte, cursor int) (h264.NALU, bool) {
	for {
		n, ok := h264.NextNALU(buf, cursor)
		if !ok {
			return h264.NALU{}, false
		}

		if h264.IsSlice(n.Header(buf)) {
			return n, true
		}
		cursor = n.Offset
	}
}

// configTagIfNeeded handles a leading SPS. It returns the sequence header
// to emit (nil when nalu is not an SPS or the context is already
// configured) and the slice that follows.
func (m *Muxer) configTagIfNeeded(buf []byte, nalu h264.NALU, logger *logrus.Entry) (*videoSeqHdr, h264.NALU, bool, error) {
	if nalu.Header(buf) != h264.SPSHeader {
		return nil, nalu, true, nil
	}

	pps, ok := h264.NextNALU(buf, nalu.Offset)
	if !ok {
		return nil, h264.NALU{}, false, errors.Wrapf(h264.ErrMalformedStartCode, "no pps after sps at %d", nalu.Offset)
	}
	if h264.Type(pps.Header(buf)) != h264.NALUTypePPS {
		logger.Warnf("unit after sps is not a pps: %02x", pps.Header(buf))
	}

	slice, hasSlice := firstSlice(buf, pps.Offset)

	if m.videoConfigured {
		return nil, slice, hasSlice, nil
	}

	sps := nalu.Payload(buf)
	record, err := AVCDecoderConfigurationRecord(sps, pps.Payload(buf))
	if err != nil {
		return nil, h264.NALU{}, false, err
	}

	body := make([]byte, 0, VideoTagHdrLen+len(record))
	body = append(body, videoKeyFrameAVC, av.AVC_SEQHDR, 0x00, 0x00, 0x00)
	body = append(body, record...)

	return &videoSeqHdr{body: body, info: parseVideoInfo(sps, logger)}, slice, hasSlice, nil
}

func parseVideoInfo(sps []byte, logger *logrus.Entry) *VideoInfo {
	var s mch264.SPS
	if err := s.Unmarshal(sps); err != nil {
		logger.Warnf("unable to parse sps: %v", err)
		return nil
	}

	info := &VideoInfo{
		Width:   s.Width(),
		Height:  s.Height(),
		FPS:     s.FPS(),
		Profile: sps[1],
		Level:   sps[3],
	}
	logger.WithFields(logrus.Fields{
		"width":  info.Width,
		"height": info.Height,
		"fps":    info.FPS,
	}).Debug("sps parsed")

	return info
}

// frameTag builds an AVC NALU tag body. The unit runs from its header byte
// to the end of buf.
func frameTag(buf []byte, nalu h264.NALU) []byte {
	data := buf[nalu.Offset:]

	flags := byte(videoInterFrameAVC)
	if h264.IsKeyFrame(data[0]) {
		flags = videoKeyFrameAVC
	}

	body := make([]byte, 0, VideoTagHdrLen+4+len(data))
	body = append(body, flags, av.AVC_NALU, 0x00, 0x00, 0x00)

	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(data)))
	body = append(body, l[:]...)

	return append(body, data...)
}
