// Package speechtotext defines the capability contract the pipeline expects
// from a speech-to-text engine.
package speechtotext

import (
	"context"
	"iter"

	"github.com/krelja/assist-core/core/audio"
)

type AudioFormat string

const (
	FormatWav AudioFormat = "wav"
	FormatOgg AudioFormat = "ogg"
)

type AudioCodec string

const (
	CodecPCM  AudioCodec = "pcm"
	CodecOpus AudioCodec = "opus"
)

// Metadata describes the audio stream handed to an engine. Only WAV-framed
// 16Khz 16-bit mono PCM is universally supported across engines and
// satellite transports.
type Metadata struct {
	Language   string
	Format     AudioFormat
	Codec      AudioCodec
	BitRate    int
	SampleRate int
	Channels   int
}

// DefaultMetadata is the stream format every engine must accept.
func DefaultMetadata(language string) Metadata {
	return Metadata{
		Language:   language,
		Format:     FormatWav,
		Codec:      CodecPCM,
		BitRate:    16,
		SampleRate: audio.DefaultSampleRate,
		Channels:   audio.SampleChannels,
	}
}

// IsDefaultFormat reports whether the metadata matches the universally
// supported format, ignoring language.
func (m Metadata) IsDefaultFormat() bool {
	return m.Format == FormatWav &&
		m.Codec == CodecPCM &&
		m.BitRate == 16 &&
		m.SampleRate == audio.DefaultSampleRate &&
		m.Channels == audio.SampleChannels
}

type ResultState string

const (
	ResultSuccess ResultState = "success"
	ResultError   ResultState = "error"
)

type Result struct {
	Text  string
	State ResultState
}

// Client is a speech-to-text engine. Transcribe consumes the stream until it
// ends or the engine decides the voice command is over, and returns the
// final transcript. A failed recognition is reported through Result.State,
// not through the error return, which is reserved for transport faults.
type Client interface {
	SupportedLanguages() []string
	CheckMetadata(metadata Metadata) bool
	Transcribe(ctx context.Context, metadata Metadata, stream iter.Seq[audio.Chunk], opts ...TranscriptionOption) (Result, error)
}
