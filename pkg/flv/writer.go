package flv

import "encoding/binary"

// WriteTag frames payload as one flv tag:
//
//	type(1) | data size(3) | timestamp low 24 bits(3) | timestamp high 8 bits(1) |
//	stream id(3, always 0) | payload | previous tag size(4) = 11 + len(payload)
func WriteTag(tagType uint8, payload []byte, timestamp uint32) []byte {
	return AppendTag(make([]byte, 0, TagSize(len(payload))), tagType, payload, timestamp)
}

// AppendTag appends the framed tag to dst.
func AppendTag(dst []byte, tagType uint8, payload []byte, timestamp uint32) []byte {
	dataSize := uint32(len(payload))

	var hdr [TagHeaderLen]byte
	hdr[0] = tagType
	putU24BE(hdr[1:4], dataSize)
	putU24BE(hdr[4:7], timestamp)
	hdr[7] = uint8(timestamp >> 24)

	dst = append(dst, hdr[:]...)
	dst = append(dst, payload...)

	var prev [PrevTagSizeLen]byte
	binary.BigEndian.PutUint32(prev[:], TagHeaderLen+dataSize)
	return append(dst, prev[:]...)
}

// TagSize is the framed size of a tag with n payload bytes.
func TagSize(n int) int {
	return TagHeaderLen + n + PrevTagSizeLen
}

func putU24BE(b []byte, v uint32) {
	_ = b[2]
	b[0] = uint8(v >> 16)
	b[1] = uint8(v >> 8)
	b[2] = uint8(v)
}

func getU24BE(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}
