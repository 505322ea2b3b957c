package flv

import (
	"encoding/binary"

	"flvmux/pkg/av"

	"github.com/pkg/errors"
)

const (
	avcConfigVersion = 0x01
	// reserved(6 bits, all 1) + lengthSizeMinusOne(2 bits) = 3: 4 byte nalu lengths
	avcLengthSizeByte = 0xFF
	// reserved(3 bits, all 1) + numOfSequenceParameterSets(5 bits) = 1
	avcNumSPSByte = 0xE1
	avcNumPPSByte = 0x01

	minSPSLen = 4
	maxPSLen  = 0xFFFF
)

// AVCDecoderConfigurationRecord builds the record carried by the AVC
// sequence header tag:
//
//	version(1)=1 | profile(1) | compatibility(1) | level(1) | 0xFF | 0xE1 |
//	sps length(2) | sps | 0x01 | pps length(2) | pps
//
// sps and pps are raw NAL units, header byte included.
func AVCDecoderConfigurationRecord(sps, pps []byte) ([]byte, error) {
	if len(sps) < minSPSLen {
		return nil, errors.Wrapf(av.ErrUndersizedBuffer, "sps len=%d", len(sps))
	}
	if len(pps) == 0 {
		return nil, errors.Wrap(av.ErrUndersizedBuffer, "empty pps")
	}
	if len(sps) > maxPSLen || len(pps) > maxPSLen {
		return nil, errors.Errorf("parameter set too large: sps=%d pps=%d", len(sps), len(pps))
	}

	b := make([]byte, 0, 11+len(sps)+len(pps))
	b = append(b,
		avcConfigVersion,
		sps[1], // AVCProfileIndication
		sps[2], // profile_compatibility
		sps[3], // AVCLevelIndication
		avcLengthSizeByte,
		avcNumSPSByte,
	)
	b = appendU16BE(b, uint16(len(sps)))
	b = append(b, sps...)
	b = append(b, avcNumPPSByte)
	b = appendU16BE(b, uint16(len(pps)))
	b = append(b, pps...)

	return b, nil
}

func appendU16BE(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}
