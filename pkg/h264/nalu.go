// Package h264 locates NAL units inside Annex-B byte streams.
package h264

import "github.com/pkg/errors"

// ErrMalformedStartCode is returned when a NAL boundary that must exist
// cannot be found.
var ErrMalformedStartCode = errors.New("h264: malformed start code")

// NAL unit types (low 5 bits of the unit header byte).
const (
	NALUTypeNonIDR = 1
	NALUTypeIDR    = 5
	NALUTypeSEI    = 6
	NALUTypeSPS    = 7
	NALUTypePPS    = 8
	NALUTypeAUD    = 9
)

// Header bytes with nal_ref_idc=3, as emitted by most encoders.
const (
	SPSHeader byte = 0x67
	PPSHeader byte = 0x68
	IDRHeader byte = 0x65
)

// minRemain is the number of bytes that must be left past a scan position
// for a start code to be reported there.
const minRemain = 4

// NALU is a view into a buffer. Offset points at the unit header byte,
// right after the start code.
type NALU struct {
	Offset       int
	Length       int
	StartCodeLen int
}

// Payload returns the unit bytes, header byte included. It returns nil when
// the view does not fit buf.
func (n NALU) Payload(buf []byte) []byte {
	if n.Offset < 0 || n.Length < 0 || n.Offset+n.Length > len(buf) {
		return nil
	}
	return buf[n.Offset : n.Offset+n.Length]
}

// Header returns the unit header byte.
func (n NALU) Header(buf []byte) byte {
	if n.Offset < 0 || n.Offset >= len(buf) {
		return 0
	}
	return buf[n.Offset]
}

// StartCodeOffset is where the start code preceding the unit begins.
func (n NALU) StartCodeOffset() int {
	return n.Offset - n.StartCodeLen
}

// FindNextNALU scans buf forward from cursor for a 3 byte (00 00 01) or
// 4 byte (00 00 00 01) start code. It returns the offset right after the
// start code and the start code length. ok is false once minRemain or fewer
// bytes are left from the scan position, so a start code is never reported
// within the last 4 bytes of buf.
func FindNextNALU(buf []byte, cursor int) (start, startCodeLen int, ok bool) {
	if cursor < 0 {
		cursor = 0
	}

	for i := cursor; len(buf)-i > minRemain; i++ {
		if buf[i] != 0x00 || buf[i+1] != 0x00 {
			continue
		}

		if buf[i+2] == 0x01 {
			return i + 3, 3, true
		}

		if buf[i+2] == 0x00 && buf[i+3] == 0x01 {
			return i + 4, 4, true
		}
	}

	return 0, 0, false
}

// NextNALU finds the next unit at or after cursor and measures it up to the
// following start code, or to the end of buf when there is none.
func NextNALU(buf []byte, cursor int) (NALU, bool) {
	start, scLen, ok := FindNextNALU(buf, cursor)
	if !ok {
		return NALU{}, false
	}

	n := NALU{Offset: start, StartCodeLen: scLen, Length: len(buf) - start}
	if next, nextLen, ok := FindNextNALU(buf, start); ok {
		n.Length = next - nextLen - start
	}

	return n, true
}

// Type returns the nal_unit_type of a unit header byte.
func Type(header byte) uint8 {
	return header & 0x1F
}

// IsKeyFrame reports whether header belongs to an IDR slice.
func IsKeyFrame(header byte) bool {
	return (header & 0x1F) == NALUTypeIDR
}

// IsSlice reports whether header belongs to a coded slice the muxer frames.
func IsSlice(header byte) bool {
	t := Type(header)
	return t == NALUTypeIDR || t == NALUTypeNonIDR
}
