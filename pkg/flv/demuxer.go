package flv

import "flvmux/pkg/av"

// Demuxer turns framed tags back into av packets, the way a downstream
// sender sees the muxer output.
type Demuxer struct{}

func NewDemuxer() *Demuxer {
	return &Demuxer{}
}

// Demux splits a muxer output packet into one packet per tag. Packet data
// aliases pkt.Data.
func (dm *Demuxer) Demux(pkt *av.Packet) ([]*av.Packet, error) {
	tags, err := SplitTags(pkt.Data)
	if err != nil {
		return nil, err
	}

	pkts := make([]*av.Packet, 0, len(tags))
	for _, t := range tags {
		pkts = append(pkts, &av.Packet{
			Header:     t,
			Data:       t.Body,
			TimeStamp:  t.TimeStamp(),
			StreamID:   t.StreamID(),
			Type:       av.PacketTypeTags,
			IsAudio:    t.IsAudio(),
			IsVideo:    t.IsVideo(),
			IsMetaData: t.IsMetaData(),
		})
	}

	return pkts, nil
}

// DemuxHdr decodes the audio/video tag header at the start of pkt.Data and
// attaches it to pkt.
func (dm *Demuxer) DemuxHdr(pkt *av.Packet) error {
	t := &Tag{}
	if pkt.IsVideo {
		t.flvTag.TagType = av.TAG_VIDEO
	} else {
		t.flvTag.TagType = av.TAG_AUDIO
	}

	if _, err := t.decodeMediaTagHeader(pkt.Data, pkt.IsVideo); err != nil {
		return err
	}
	t.Body = pkt.Data
	pkt.Header = t

	return nil
}
