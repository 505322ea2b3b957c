package av

// flv tag types
const (
	TAG_AUDIO          = 8
	TAG_VIDEO          = 9
	TAG_SCRIPTDATAAMF0 = 18
)

// audio
const (
	SOUND_AAC = 10

	SOUND_5_5Khz = 0
	SOUND_11Khz  = 1
	SOUND_22Khz  = 2
	SOUND_44Khz  = 3

	SOUND_8BIT  = 0
	SOUND_16BIT = 1

	SOUND_MONO   = 0
	SOUND_STEREO = 1

	AAC_SEQHDR = 0
	AAC_RAW    = 1
)

// video
const (
	KEY_FRAME   = 1
	INTER_FRAME = 2

	VIDEO_H264 = 7

	AVC_SEQHDR = 0
	AVC_NALU   = 1
	AVC_EOS    = 2
)
