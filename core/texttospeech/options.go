package texttospeech

import "github.com/krelja/assist-core/core/audio"

type SynthesisOptions struct {
	Voice string

	// PreferredFormat requests an output container ("wav", "mp3", ...).
	// Satellite transports request raw-PCM-compatible WAV.
	PreferredFormat     string
	PreferredSampleRate int
	PreferredChannels   int
	PreferredByteWidth  int
}

type SynthesisOption func(*SynthesisOptions)

func WithVoice(voice string) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.Voice = voice
	}
}

func WithPreferredFormat(format string) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.PreferredFormat = format
		if format == "wav" {
			o.PreferredSampleRate = audio.DefaultSampleRate
			o.PreferredChannels = audio.SampleChannels
			o.PreferredByteWidth = audio.SampleWidth
		}
	}
}

// ApplyOptions folds options into a struct for engines and validation.
func ApplyOptions(opts ...SynthesisOption) SynthesisOptions {
	options := SynthesisOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
