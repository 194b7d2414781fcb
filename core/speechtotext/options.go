package speechtotext

type TranscriptionOptions struct {
	// SpeechStartedCallback reports the provider-detected start of the
	// voice command with the originating chunk's stream timestamp.
	SpeechStartedCallback func(timestampMS int)
	// SpeechEndedCallback reports the provider-detected end of the voice
	// command.
	SpeechEndedCallback func(timestampMS int)
}

type TranscriptionOption func(*TranscriptionOptions)

func WithSpeechStartedCallback(callback func(timestampMS int)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithSpeechEndedCallback(callback func(timestampMS int)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechEndedCallback = callback
	}
}
