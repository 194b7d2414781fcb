// Package pipeline implements the Assist voice pipeline: a per-run state
// machine that chains wake word detection, speech-to-text, intent
// recognition and text-to-speech over an async audio stream, emitting a
// typed event feed that transports and satellite bridges translate onto
// their own wire protocols.
package pipeline

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
)

// Stage is one step of a pipeline run. Stages are strictly ordered; a run
// declares a start and end stage and advances through every stage in
// between, never regressing and never repeating.
type Stage string

const (
	StageWakeWord Stage = "wake_word"
	StageStt      Stage = "stt"
	StageIntent   Stage = "intent"
	StageTts      Stage = "tts"

	// stageDone is the internal cursor position after the end stage.
	stageDone Stage = "done"
)

var stageOrder = []Stage{StageWakeWord, StageStt, StageIntent, StageTts}

func (s Stage) index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s names a runnable stage.
func (s Stage) Valid() bool {
	return s.index() >= 0
}

// Before reports whether s precedes other in the stage ordering.
func (s Stage) Before(other Stage) bool {
	return s.index() < other.index()
}

// next returns the stage following s, or stageDone past the end.
func (s Stage) next() Stage {
	i := s.index()
	if i < 0 || i+1 >= len(stageOrder) {
		return stageDone
	}
	return stageOrder[i+1]
}

// Pipeline is an immutable named configuration referenced by runs. Engine
// ids resolve against an EngineRegistry; an empty engine id means the
// pipeline does not support that stage.
type Pipeline struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`

	ConversationEngine   string `json:"conversation_engine"`
	ConversationLanguage string `json:"conversation_language"`

	SttEngine   string `json:"stt_engine,omitempty"`
	SttLanguage string `json:"stt_language,omitempty"`

	TtsEngine   string `json:"tts_engine,omitempty"`
	TtsLanguage string `json:"tts_language,omitempty"`
	TtsVoice    string `json:"tts_voice,omitempty"`

	WakeWordEngine string `json:"wake_word_engine,omitempty"`
	WakeWordID     string `json:"wake_word_id,omitempty"`
}

// Validate checks internal consistency of the configuration: every selected
// engine needs a language to drive it with.
func (p Pipeline) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if p.Language == "" {
		return fmt.Errorf("pipeline language is required")
	}
	if p.ConversationEngine == "" {
		return fmt.Errorf("conversation engine is required")
	}
	if p.SttEngine != "" && p.SttLanguage == "" {
		return fmt.Errorf("need language stt_language for engine %s", p.SttEngine)
	}
	if p.TtsEngine != "" && p.TtsLanguage == "" {
		return fmt.Errorf("need language tts_language for engine %s", p.TtsEngine)
	}
	return nil
}

// SupportsSpeechToText reports whether an STT engine is configured.
func (p Pipeline) SupportsSpeechToText() bool { return p.SttEngine != "" }

// SupportsTextToSpeech reports whether a TTS engine is configured.
func (p Pipeline) SupportsTextToSpeech() bool { return p.TtsEngine != "" }

// JSONSchema returns the schema of the stored pipeline representation, used
// by configuration tooling to validate pipeline files before loading.
func JSONSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(&Pipeline{})
}

func newPipelineID() string {
	return uuid.NewString()
}
