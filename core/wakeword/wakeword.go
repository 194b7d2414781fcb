// Package wakeword defines the capability contract the pipeline expects
// from a wake word detection engine.
package wakeword

import (
	"context"
	"iter"

	"github.com/krelja/assist-core/core/audio"
)

type WakeWord struct {
	ID     string
	Phrase string
}

// Detection reports a recognized wake word. QueuedAudio holds chunks that
// were already consumed from the stream when detection fired; because
// detection happens after the word was spoken, these are re-fed to
// speech-to-text so the user does not need to pause before the command.
type Detection struct {
	WakeWordID  string
	Phrase      string
	TimestampMS int
	QueuedAudio []audio.Chunk
}

// Entity is a wake word detection engine. ProcessAudioStream consumes the
// stream until a wake word is detected or the stream ends; a nil Detection
// with a nil error means the stream ended without a detection.
type Entity interface {
	SupportedWakeWords() []WakeWord
	ProcessAudioStream(ctx context.Context, stream iter.Seq[audio.Chunk], wakeWordID string) (*Detection, error)
}
