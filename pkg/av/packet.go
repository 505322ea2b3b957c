package av

type PacketHeader interface{}

type AudioPacketHeader interface {
	PacketHeader
	SoundFormat() uint8
	AACPacketType() uint8
}

type VideoPacketHeader interface {
	PacketHeader
	IsKeyFrame() bool
	IsSeq() bool
	CodecID() uint8
	CompositionTime() int32
}

// PacketType marks what an output packet carries.
type PacketType uint8

const (
	PacketTypeRaw  PacketType = 0 // elementary stream input
	PacketTypeTags PacketType = 1 // one or more concatenated flv tags
)

// Packet is used both for elementary stream input handed to the muxer and
// for the tag stream it hands back. Input data is borrowed for the duration
// of a call only; output data is always a fresh slice owned by the caller.
type Packet struct {
	Header PacketHeader
	Data   []byte

	TimeStamp uint32 // pts
	DTS       uint32 // video only
	StreamID  uint32

	Type PacketType

	IsAudio    bool
	IsVideo    bool
	IsMetaData bool
}

// Size is the number of bytes carried.
func (p *Packet) Size() int {
	return len(p.Data)
}
