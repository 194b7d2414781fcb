package audio

import "time"

// Pipeline audio is always 16Khz 16-bit mono PCM. Incoming streams that do
// not match are resampled before they reach a stage consumer.
const (
	DefaultSampleRate = 16000
	DefaultFormat     = "linear16"

	SampleWidth     = 2
	SampleChannels  = 1
	SamplesPerChunk = 240 // 10ms at 16Khz
	MSPerChunk      = 10
	BytesPerChunk   = SamplesPerChunk * SampleWidth * SampleChannels
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{
		SampleRate: DefaultSampleRate,
		Channels:   SampleChannels,
		Format:     encodingFormat(DefaultFormat),
	}
}

type EncodingInfo struct {
	SampleRate int
	Channels   int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	case EncodingLinear16:
		return 0
	}

	return 0
}

// BytesPerSecond reports the raw throughput of the encoding, used to pace
// playback against real time.
func (e EncodingInfo) BytesPerSecond() int {
	channels := e.Channels
	if channels == 0 {
		channels = 1
	}
	return e.SampleRate * e.Format.ByteSize() * channels
}

// Duration reports how long the given audio payload plays for.
func (e EncodingInfo) Duration(audio []byte) time.Duration {
	bps := e.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(float64(len(audio)) / float64(bps) * float64(time.Second))
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
