package pipeline

import (
	"iter"
	"strings"
	"time"

	"github.com/krelja/assist-core/core/audio"
	"github.com/krelja/assist-core/core/speechtotext"
)

// Input describes one pipeline run request. Which fields are required
// depends on the requested stage range; Validate enforces the combinations
// before any run state is created or events emitted.
type Input struct {
	// PipelineID selects the pipeline configuration. Empty resolves to
	// the store's preferred pipeline.
	PipelineID string

	StartStage Stage
	EndStage   Stage

	// SttStream is the source audio, consumed by the wake word and stt
	// stages. Required when StartStage is wake_word or stt.
	SttStream iter.Seq[audio.Chunk]
	// SttMetadata overrides the assumed stream format. Nil means the
	// default 16kHz 16-bit mono PCM.
	SttMetadata *speechtotext.Metadata

	// IntentInput seeds runs that start at the intent stage.
	IntentInput string
	// TtsInput seeds runs that start at the tts stage.
	TtsInput string

	// ConversationID threads multi-turn exchanges through the agent.
	ConversationID string
	// DeviceID identifies the originating satellite, if any.
	DeviceID string

	// Sink receives the run's event feed. A nil sink discards events.
	Sink Sink
	// RunnerData is attached verbatim to the run-start event for
	// transport-specific extras.
	RunnerData any

	// WakeWordTimeout bounds wake word detection. Zero means
	// DefaultWakeWordTimeout; NoWakeWordTimeout disables the bound.
	WakeWordTimeout time.Duration
	// PreRollDuration is how much audio heard before the wake word
	// detection is replayed into stt.
	PreRollDuration time.Duration
	// VolumeMultiplier scales incoming samples. Zero means unchanged.
	VolumeMultiplier float64
	// TtsAudioOutput requests a synthesis container ("wav" for satellite
	// playback). Empty leaves the engine default.
	TtsAudioOutput string
}

// Validate checks the stage range and the per-stage required fields. It is
// pure: no engine lookups, no events, no side effects.
func (in Input) Validate() error {
	if !in.StartStage.Valid() {
		return newValidationError("invalid start stage %q", string(in.StartStage))
	}
	if !in.EndStage.Valid() {
		return newValidationError("invalid end stage %q", string(in.EndStage))
	}
	if in.EndStage.Before(in.StartStage) {
		return newValidationError("end stage %s precedes start stage %s",
			string(in.EndStage), string(in.StartStage))
	}

	switch in.StartStage {
	case StageWakeWord, StageStt:
		if in.SttStream == nil {
			return newValidationError("audio stream is required to start at stage %s",
				string(in.StartStage))
		}
	case StageIntent:
		if strings.TrimSpace(in.IntentInput) == "" {
			return newValidationError("intent input is required to start at stage intent")
		}
	case StageTts:
		if strings.TrimSpace(in.TtsInput) == "" {
			return newValidationError("tts input is required to start at stage tts")
		}
	}

	if in.VolumeMultiplier < 0 {
		return newValidationError("volume multiplier must not be negative")
	}
	return nil
}
