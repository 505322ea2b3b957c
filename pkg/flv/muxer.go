package flv

import (
	"io/ioutil"

	"flvmux/internal/logging"
	"flvmux/pkg/aac"
	"flvmux/pkg/av"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

const (
	VideoCodecAVC = av.VIDEO_H264
	AudioCodecAAC = av.SOUND_AAC
)

var (
	// ErrClosed is returned by calls on a closed Muxer.
	ErrClosed = errors.New("flv: muxer closed")

	// ErrTagTooLarge is returned when a tag body does not fit 24 bits.
	ErrTagTooLarge = errors.New("flv: tag too large")

	// ErrUndersizedBuffer aliases the shared sentinel so callers need not
	// import av.
	ErrUndersizedBuffer = av.ErrUndersizedBuffer
)

// Config is copied by Open.
type Config struct {
	HasVideo bool
	HasAudio bool

	// Optional onMetaData entries, written only when non zero.
	Width           int
	Height          int
	FrameRate       float64
	AudioSampleRate int
	AudioChannels   int

	// KeepADTSHeader sends whole ADTS frames as AAC raw data instead of
	// stripping the header.
	KeepADTSHeader bool

	Logger  *logrus.Logger
	Log     *logging.LogConfig
	Metrics *Metrics
}

// VideoInfo is filled from the first SPS seen.
type VideoInfo struct {
	Width  int
	Height int
	FPS    float64

	Profile uint8
	Level   uint8
}

// Muxer is the per stream mux context. It is not safe for concurrent use.
type Muxer struct {
	config Config
	id     string
	logger *logrus.Entry

	header []byte

	videoConfigured bool
	videoInfo       *VideoInfo

	audioConfigured bool
	audioConfig     aac.AudioSpecificConfig

	closed bool
}

// Open creates a mux context and builds the onMetaData tag returned by
// Header.
func Open(config *Config) (*Muxer, error) {
	if config == nil {
		config = &Config{}
	}

	m := &Muxer{
		config: *config,
		id:     uuid.NewV4().String(),
	}

	logger, err := m.newLogger()
	if err != nil {
		return nil, err
	}
	m.logger = logger.WithField("ctx", m.id)

	body, err := buildMetaData(m.config.metaDataEntries())
	if err != nil {
		m.logger.WithField("event", "Open").Error(err)
		return nil, err
	}
	m.header = WriteTag(av.TAG_SCRIPTDATAAMF0, body, 0)
	m.observe(av.TAG_SCRIPTDATAAMF0, len(m.header))

	m.logger.WithFields(logrus.Fields{
		"event":    "Open",
		"hasVideo": m.config.HasVideo,
		"hasAudio": m.config.HasAudio,
	}).Debugf("metadata tag ready, size: %d", len(m.header))

	return m, nil
}

func (m *Muxer) newLogger() (*logrus.Logger, error) {
	switch {
	case m.config.Logger != nil:
		return m.config.Logger, nil
	case m.config.Log != nil:
		return m.config.Log.NewLogger()
	default:
		logger := logrus.New()
		logger.SetOutput(ioutil.Discard)
		return logger, nil
	}
}

// ID identifies the context in logs.
func (m *Muxer) ID() string {
	return m.id
}

// Header returns the framed onMetaData tag to send before anything else.
func (m *Muxer) Header() *av.Packet {
	data := make([]byte, len(m.header))
	copy(data, m.header)

	return &av.Packet{
		Data:       data,
		Type:       av.PacketTypeTags,
		IsMetaData: true,
	}
}

func (m *Muxer) VideoConfigured() bool {
	return m.videoConfigured
}

func (m *Muxer) AudioConfigured() bool {
	return m.audioConfigured
}

// AudioConfig returns the cached AudioSpecificConfig; ok is false until the
// first ADTS frame was muxed.
func (m *Muxer) AudioConfig() (aac.AudioSpecificConfig, bool) {
	return m.audioConfig, m.audioConfigured
}

// VideoInfo returns what was parsed from the SPS, nil until the video
// sequence header was emitted or if the SPS could not be parsed.
func (m *Muxer) VideoInfo() *VideoInfo {
	return m.videoInfo
}

// Close releases the context. Packets returned earlier stay valid.
func (m *Muxer) Close() error {
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	m.header = nil

	m.logger.WithField("event", "Close").Debug("muxer closed")
	return nil
}

// tagBuilder collects the tags produced by one call. Nothing reaches the
// caller unless every tag was built.
type tagBuilder struct {
	tagType uint8
	ts      uint32
	tags    [][]byte
	size    int
}

func (b *tagBuilder) add(body []byte) error {
	if len(body) > maxTagDataLength {
		return errors.Wrapf(ErrTagTooLarge, "body len=%d", len(body))
	}
	tag := WriteTag(b.tagType, body, b.ts)
	b.tags = append(b.tags, tag)
	b.size += len(tag)
	return nil
}

func (b *tagBuilder) packet(in *av.Packet) *av.Packet {
	out := &av.Packet{
		TimeStamp: in.TimeStamp,
		DTS:       in.DTS,
		StreamID:  in.StreamID,
		Type:      av.PacketTypeTags,
		IsAudio:   b.tagType == av.TAG_AUDIO,
		IsVideo:   b.tagType == av.TAG_VIDEO,
	}
	if b.size == 0 {
		return out
	}

	out.Data = make([]byte, 0, b.size)
	for _, tag := range b.tags {
		out.Data = append(out.Data, tag...)
	}
	return out
}

func (m *Muxer) observe(tagType uint8, n int) {
	if m.config.Metrics != nil {
		m.config.Metrics.observeTag(tagType, n)
	}
}

func (m *Muxer) observeError(kind string) {
	if m.config.Metrics != nil {
		m.config.Metrics.observeError(kind)
	}
}
