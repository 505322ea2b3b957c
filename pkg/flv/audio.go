package flv

import (
	"flvmux/pkg/aac"
	"flvmux/pkg/av"

	"github.com/sirupsen/logrus"
)

// sound rate slot per ADTS sampling frequency index. 48kHz has no flv slot
// and is sent as 44kHz.
var soundRates = map[uint8]uint8{
	10: av.SOUND_11Khz, // 11025
	7:  av.SOUND_22Khz, // 22050
	4:  av.SOUND_44Khz, // 44100
	3:  av.SOUND_44Khz, // 48000
}

// SoundHeader derives the AUDIODATA flags byte:
//
//	soundFormat(4)=AAC | soundRate(2) | soundSize(1)=16bit | soundType(1)=channels-1
//
// It returns 0 for sampling frequencies without a sound rate slot.
func SoundHeader(c aac.AudioSpecificConfig) byte {
	rate, ok := soundRates[c.SamplingFrequencyIndex]
	if !ok {
		return 0
	}

	soundType := (c.ChannelConfiguration - 1) & 0x01
	return av.SOUND_AAC<<4 | rate<<2 | av.SOUND_16BIT<<1 | soundType
}

// MuxAudio turns the first ADTS frame of in into zero, one or two audio
// tags: an AAC sequence header on the first call, then one raw AAC tag.
func (m *Muxer) MuxAudio(in *av.Packet) (*av.Packet, error) {
	if m.closed {
		return nil, ErrClosed
	}

	logger := m.logger.WithField("event", "MuxAudio")
	buf := in.Data

	hdr, err := aac.ParseADTS(buf)
	if err != nil {
		m.observeError("audio")
		logger.Error(err)
		return nil, err
	}

	b := &tagBuilder{tagType: av.TAG_AUDIO, ts: in.TimeStamp}

	conf := m.audioConfig
	seqHdr := m.audioConfigTagIfNeeded(hdr, logger)
	if seqHdr != nil {
		conf = hdr.AudioSpecificConfig()
		if err := b.add(seqHdr); err != nil {
			m.observeError("audio")
			logger.Error(err)
			return nil, err
		}
	}

	if err := b.add(m.audioFrameTag(conf, hdr, buf)); err != nil {
		m.observeError("audio")
		logger.Error(err)
		return nil, err
	}

	if seqHdr != nil {
		m.audioConfig = conf
		m.audioConfigured = true
	}

	out := b.packet(in)
	for _, tag := range b.tags {
		m.observe(av.TAG_AUDIO, len(tag))
	}
	logger.Tracef("pts: %d, adts frame: %d, tags: %d, size: %d", in.TimeStamp, hdr.FrameLength, len(b.tags), out.Size())

	return out, nil
}

// audioConfigTagIfNeeded returns the AAC sequence header body, nil once the
// context is configured.
func (m *Muxer) audioConfigTagIfNeeded(hdr *aac.ADTSHeader, logger *logrus.Entry) []byte {
	if m.audioConfigured {
		return nil
	}

	conf := hdr.AudioSpecificConfig()
	sh := SoundHeader(conf)

	fields := logrus.Fields{
		"objectType": conf.ObjectType,
		"frequency":  conf.SamplingFrequencyIndex,
		"channels":   conf.ChannelConfiguration,
		"header":     sh,
	}
	if sh == 0 {
		logger.WithFields(fields).Warnf("no flv sound rate for %d Hz", conf.SampleRate())
	} else {
		logger.WithFields(fields).Info("aac sequence header emitted")
	}

	body := make([]byte, 0, AudioTagHdrLen+2)
	body = append(body, sh, av.AAC_SEQHDR)
	return append(body, conf.Bytes()...)
}

func (m *Muxer) audioFrameTag(conf aac.AudioSpecificConfig, hdr *aac.ADTSHeader, buf []byte) []byte {
	data := hdr.Payload(buf)
	if m.config.KeepADTSHeader {
		data = hdr.Frame(buf)
	}

	body := make([]byte, 0, AudioTagHdrLen+len(data))
	body = append(body, SoundHeader(conf), av.AAC_RAW)
	return append(body, data...)
}
