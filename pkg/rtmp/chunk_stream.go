package rtmp

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const (
	DefaultChunkSize uint32 = 128
	MaxChunkSize     uint32 = 0xFFFFFF

	extendedTimeStamp uint32 = 0xFFFFFF
)

type ChunkBasicHeader struct {
	Fmt  uint8
	Csid uint32
}

type ChunkMessageHeader struct {
	TimeStamp   uint32
	MsgLength   uint32
	MsgTypeID   RtmpMsgTypeID
	MsgStreamID uint32
}

type ChunkHeader struct {
	ChunkBasicHeader
	ChunkMessageHeader
	ExtendedTimeStamp uint32
}

// ChunkStream is one RTMP message together with the state needed to read it
// back chunk by chunk.
type ChunkStream struct {
	ChunkHeader
	ChunkData []byte

	tmpFormat    uint8
	timeExtended bool
	gotFull      bool
	index        uint32
	remain       uint32
}

func NewChunkStream() *ChunkStream {
	return &ChunkStream{}
}

// SetControlMessage turns cs into a protocol control message carrying one
// 32 bit value, e.g. MsgSetChunkSize.
func (cs *ChunkStream) SetControlMessage(typeID RtmpMsgTypeID, length uint32, value uint32) *ChunkStream {
	cs.Fmt = 0
	cs.Csid = csidControl
	cs.MsgTypeID = typeID
	cs.MsgStreamID = 0
	cs.MsgLength = length
	cs.ChunkData = make([]byte, length)
	binary.BigEndian.PutUint32(cs.ChunkData[:4], value)

	return cs
}

// WriteChunks writes the message as a type 0 chunk followed by type 3
// chunks of at most chunkSize bytes of payload each.
func (cs *ChunkStream) WriteChunks(w io.Writer, chunkSize uint32) error {
	if chunkSize == 0 {
		return errors.New("rtmp: zero chunk size")
	}
	if cs.MsgLength != uint32(len(cs.ChunkData)) {
		return errors.Errorf("rtmp: message length %d, data %d", cs.MsgLength, len(cs.ChunkData))
	}

	extended := cs.TimeStamp >= extendedTimeStamp

	var hdr []byte
	hdr = appendBasicHeader(hdr, 0, cs.Csid)

	ts := cs.TimeStamp
	if extended {
		ts = extendedTimeStamp
	}
	hdr = appendU24BE(hdr, ts)
	hdr = appendU24BE(hdr, cs.MsgLength)
	hdr = append(hdr, uint8(cs.MsgTypeID))

	var sid [4]byte
	binary.LittleEndian.PutUint32(sid[:], cs.MsgStreamID)
	hdr = append(hdr, sid[:]...)

	if extended {
		hdr = appendU32BE(hdr, cs.TimeStamp)
	}

	data := cs.ChunkData
	for first := true; first || len(data) > 0; first = false {
		if !first {
			hdr = appendBasicHeader(hdr[:0], 3, cs.Csid)
			if extended {
				hdr = appendU32BE(hdr, cs.TimeStamp)
			}
		}

		n := uint32(len(data))
		if n > chunkSize {
			n = chunkSize
		}

		if _, err := w.Write(hdr); err != nil {
			return err
		}
		if _, err := w.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}

	return nil
}

func appendBasicHeader(b []byte, format uint8, csid uint32) []byte {
	switch {
	case csid < 64:
		return append(b, format<<6|uint8(csid))
	case csid < 320:
		return append(b, format<<6, uint8(csid-64))
	default:
		id := csid - 64
		return append(b, format<<6|1, uint8(id), uint8(id>>8))
	}
}

func appendU24BE(b []byte, v uint32) []byte {
	return append(b, uint8(v>>16), uint8(v>>8), uint8(v))
}

func appendU32BE(b []byte, v uint32) []byte {
	return append(b, uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v))
}

// ChunkReader reassembles messages written by WriteChunks or by any other
// RTMP peer.
type ChunkReader struct {
	r         io.Reader
	chunkSize uint32
	chunks    map[uint32]*ChunkStream
}

func NewChunkReader(r io.Reader, chunkSize uint32) *ChunkReader {
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkReader{
		r:         r,
		chunkSize: chunkSize,
		chunks:    make(map[uint32]*ChunkStream),
	}
}

func (c *ChunkReader) ReadChunkStream() (*ChunkStream, error) {
	for {
		h, err := c.ReadUint(1, true)
		if err != nil {
			return nil, err
		}

		format := h >> 6
		csid := h & 0x3f
		switch csid {
		case 0:
			id, err := c.ReadUint(1, false)
			if err != nil {
				return nil, err
			}
			csid = id + 64
		case 1:
			id, err := c.ReadUint(2, false)
			if err != nil {
				return nil, err
			}
			csid = id + 64
		}

		cs, ok := c.chunks[csid]
		if !ok {
			cs = &ChunkStream{}
			c.chunks[csid] = cs
		}

		cs.tmpFormat = uint8(format)
		cs.Csid = csid
		if err := c.readChunk(cs); err != nil {
			return nil, err
		}

		if cs.gotFull {
			if cs.MsgTypeID == MsgSetChunkSize && len(cs.ChunkData) >= 4 {
				c.chunkSize = binary.BigEndian.Uint32(cs.ChunkData) & 0x7FFFFFFF
			}
			cs.gotFull = false
			return cs.message(), nil
		}
	}
}

// message copies out a completed message so the per csid state can be reused.
func (cs *ChunkStream) message() *ChunkStream {
	return &ChunkStream{
		ChunkHeader: cs.ChunkHeader,
		ChunkData:   cs.ChunkData,
	}
}

func (c *ChunkReader) readChunk(cs *ChunkStream) error {
	if cs.remain != 0 && cs.tmpFormat != 3 {
		return fmt.Errorf("remain(%d) not zero while tmpFormat as %d", cs.remain, cs.tmpFormat)
	}

	setRemainFlag := func(cs *ChunkStream) {
		cs.gotFull = false
		cs.index = 0
		cs.remain = cs.MsgLength
		cs.ChunkData = make([]byte, int(cs.MsgLength))
	}

	readTimeStamp := func(cs *ChunkStream) (uint32, error) {
		ts, err := c.ReadUint(3, true)
		if err != nil {
			return 0, err
		}
		cs.timeExtended = ts == extendedTimeStamp
		return ts, nil
	}

	var err error
	switch cs.tmpFormat {
	case 0:
		cs.Fmt = 0
		if cs.TimeStamp, err = readTimeStamp(cs); err != nil {
			return err
		}
		if err = c.readLengthAndType(cs); err != nil {
			return err
		}
		if cs.MsgStreamID, err = c.ReadUint(4, false); err != nil {
			return err
		}
		if cs.timeExtended {
			if cs.TimeStamp, err = c.ReadUint(4, true); err != nil {
				return err
			}
		}
		setRemainFlag(cs)
	case 1, 2:
		cs.Fmt = cs.tmpFormat
		delta, err := readTimeStamp(cs)
		if err != nil {
			return err
		}
		if cs.tmpFormat == 1 {
			if err = c.readLengthAndType(cs); err != nil {
				return err
			}
		}
		if cs.timeExtended {
			if delta, err = c.ReadUint(4, true); err != nil {
				return err
			}
		}
		cs.ExtendedTimeStamp = delta
		cs.TimeStamp += delta
		setRemainFlag(cs)
	case 3:
		if cs.remain == 0 {
			switch cs.Fmt {
			case 0:
				if cs.timeExtended {
					if cs.TimeStamp, err = c.ReadUint(4, true); err != nil {
						return err
					}
				}
			case 1, 2:
				delta := cs.ExtendedTimeStamp
				if cs.timeExtended {
					if delta, err = c.ReadUint(4, true); err != nil {
						return err
					}
				}
				cs.TimeStamp += delta
			}
			setRemainFlag(cs)
		} else if cs.timeExtended {
			// continuation chunks repeat the extended timestamp
			if _, err = c.ReadUint(4, true); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("invalid rtmp format: %d", cs.tmpFormat)
	}

	size := cs.remain
	if size > c.chunkSize {
		size = c.chunkSize
	}

	buf := cs.ChunkData[cs.index : cs.index+size]
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return err
	}
	cs.index += size
	cs.remain -= size
	if cs.remain == 0 {
		cs.gotFull = true
	}

	return nil
}

func (c *ChunkReader) readLengthAndType(cs *ChunkStream) error {
	var err error
	if cs.MsgLength, err = c.ReadUint(3, true); err != nil {
		return err
	}
	typeID, err := c.ReadUint(1, true)
	if err != nil {
		return err
	}
	cs.MsgTypeID = RtmpMsgTypeID(typeID)
	return nil
}

func (c *ChunkReader) ReadUint(n int, bigEndian bool) (uint32, error) {
	ret := uint32(0)

	oneByte := make([]byte, 1)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(c.r, oneByte); err != nil {
			return 0, err
		}

		if bigEndian {
			ret = ret<<8 + uint32(oneByte[0])
		} else {
			ret += uint32(oneByte[0]) << uint32(i*8)
		}
	}

	return ret, nil
}
