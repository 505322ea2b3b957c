package rtmp

import (
	"io"
	"io/ioutil"

	"flvmux/pkg/av"
	"flvmux/pkg/flv"

	"github.com/gwuhaolin/livego/protocol/amf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Logger *logrus.Logger

	// ChunkSize is announced with a set chunk size message before the first
	// message when it differs from DefaultChunkSize.
	ChunkSize uint32
	StreamID  uint32
}

// MessageFromTag maps one FLV tag onto an RTMP message.
func MessageFromTag(tag *flv.Tag, streamID uint32) (*ChunkStream, error) {
	return MessageFromPacket(&av.Packet{
		Header:     tag,
		Data:       tag.Body,
		TimeStamp:  tag.TimeStamp(),
		StreamID:   streamID,
		IsAudio:    tag.IsAudio(),
		IsVideo:    tag.IsVideo(),
		IsMetaData: tag.IsMetaData(),
	}, streamID)
}

// MessageFromPacket maps a single-tag packet, as produced by flv.Demuxer,
// onto an RTMP message. Script data is prefixed with @setDataFrame the way
// publishers send it.
func MessageFromPacket(pkt *av.Packet, streamID uint32) (*ChunkStream, error) {
	cs := NewChunkStream()
	cs.MsgStreamID = streamID
	cs.TimeStamp = pkt.TimeStamp
	cs.ChunkData = append([]byte(nil), pkt.Data...)

	switch {
	case pkt.IsAudio:
		cs.Csid = csidAudio
		cs.MsgTypeID = MsgAudioMessage
	case pkt.IsVideo:
		cs.Csid = csidVideo
		cs.MsgTypeID = MsgVideoMessage
	case pkt.IsMetaData:
		var err error
		if cs.ChunkData, err = amf.MetaDataReform(cs.ChunkData, amf.ADD); err != nil {
			return nil, errors.Wrap(err, "rtmp: reform metadata")
		}
		cs.Csid = csidData
		cs.MsgTypeID = MsgAMF0DataMessage
	default:
		return nil, errors.New("rtmp: packet is neither audio, video nor metadata")
	}
	cs.MsgLength = uint32(len(cs.ChunkData))

	return cs, nil
}

// Packer writes muxer output to w as RTMP chunks. It does not own a
// connection; handshake and command exchange happen elsewhere.
type Packer struct {
	w         io.Writer
	chunkSize uint32
	streamID  uint32
	announced bool
	demuxer   *flv.Demuxer

	logger *logrus.Entry
}

func NewPacker(w io.Writer, config *Config) (*Packer, error) {
	if config == nil {
		config = &Config{}
	}

	chunkSize := config.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize > MaxChunkSize {
		return nil, errors.Errorf("rtmp: chunk size %d out of range", chunkSize)
	}

	logger := config.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(ioutil.Discard)
	}

	return &Packer{
		w:         w,
		chunkSize: chunkSize,
		streamID:  config.StreamID,
		announced: chunkSize == DefaultChunkSize,
		demuxer:   flv.NewDemuxer(),
		logger:    logger.WithField("streamid", config.StreamID),
	}, nil
}

func (p *Packer) ChunkSize() uint32 {
	return p.chunkSize
}

// WriteHeader sends the muxer's metadata tag.
func (p *Packer) WriteHeader(m *flv.Muxer) error {
	return p.WritePacket(m.Header())
}

// WritePacket sends every tag carried by pkt as its own message.
func (p *Packer) WritePacket(pkt *av.Packet) error {
	logger := p.logger.WithField("event", "WritePacket")

	pkts, err := p.demuxer.Demux(pkt)
	if err != nil {
		logger.Error(err)
		return err
	}

	if !p.announced && len(pkts) > 0 {
		cs := NewChunkStream().SetControlMessage(MsgSetChunkSize, 4, p.chunkSize)
		if err := cs.WriteChunks(p.w, DefaultChunkSize); err != nil {
			logger.Error(err)
			return err
		}
		p.announced = true
		logger.Debugf("chunk size set to %d", p.chunkSize)
	}

	for _, tagPkt := range pkts {
		cs, err := MessageFromPacket(tagPkt, p.streamID)
		if err != nil {
			logger.Error(err)
			return err
		}

		if err := cs.WriteChunks(p.w, p.chunkSize); err != nil {
			logger.Error(err)
			return err
		}
		logger.Tracef("message type %d, len %d, ts %d", cs.MsgTypeID, cs.MsgLength, cs.TimeStamp)
	}

	return nil
}
