package aac

// AudioSpecificConfig holds the three fields the muxer needs from the first
// ADTS header of a stream. ObjectType keeps the raw 2 bit ADTS profile; the
// MPEG-4 audio object type is ObjectType+1.
type AudioSpecificConfig struct {
	ObjectType             uint8
	SamplingFrequencyIndex uint8
	ChannelConfiguration   uint8
}

// Bytes returns the 2 byte AudioSpecificConfig:
//
//	audioObjectType        5
//	samplingFrequencyIndex 4
//	channelConfiguration   4
//	frameLengthFlag, dependsOnCoreCoder, extensionFlag 3 (zero)
func (c AudioSpecificConfig) Bytes() []byte {
	return []byte{
		(c.ObjectType+1)<<3 | c.SamplingFrequencyIndex>>1,
		(c.SamplingFrequencyIndex&0x01)<<7 | c.ChannelConfiguration<<3,
	}
}

// SampleRate in Hz.
func (c AudioSpecificConfig) SampleRate() int {
	return SampleRate(c.SamplingFrequencyIndex)
}
