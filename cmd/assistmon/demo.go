package main

import (
	"context"
	"iter"
	"time"

	pipeline "github.com/krelja/assist-core/core"
	"github.com/krelja/assist-core/core/audio"
	"github.com/krelja/assist-core/core/conversation"
	"github.com/krelja/assist-core/core/speechtotext"
	"github.com/krelja/assist-core/core/texttospeech"
	"github.com/krelja/assist-core/core/wakeword"
)

// The demo wires scripted engines into the registry so the monitor renders a
// full run without microphones or network services.

type demoWakeWord struct{}

func (demoWakeWord) SupportedWakeWords() []wakeword.WakeWord {
	return []wakeword.WakeWord{{ID: "ok_demo", Phrase: "ok demo"}}
}

func (demoWakeWord) ProcessAudioStream(ctx context.Context, stream iter.Seq[audio.Chunk], _ string) (*wakeword.Detection, error) {
	consumed := 0
	for chunk := range stream {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		consumed++
		if consumed >= 20 {
			return &wakeword.Detection{
				WakeWordID:  "ok_demo",
				Phrase:      "ok demo",
				TimestampMS: chunk.TimestampMS,
			}, nil
		}
	}
	return nil, nil
}

type demoTranscriber struct{}

func (demoTranscriber) SupportedLanguages() []string { return []string{"en"} }

func (demoTranscriber) CheckMetadata(metadata speechtotext.Metadata) bool {
	return metadata.IsDefaultFormat()
}

func (demoTranscriber) Transcribe(ctx context.Context, _ speechtotext.Metadata, stream iter.Seq[audio.Chunk], opts ...speechtotext.TranscriptionOption) (speechtotext.Result, error) {
	options := speechtotext.TranscriptionOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	consumed := 0
	for chunk := range stream {
		if ctx.Err() != nil {
			return speechtotext.Result{}, ctx.Err()
		}
		consumed++
		if consumed == 10 && options.SpeechStartedCallback != nil {
			options.SpeechStartedCallback(chunk.TimestampMS)
		}
		if consumed == 60 {
			if options.SpeechEndedCallback != nil {
				options.SpeechEndedCallback(chunk.TimestampMS)
			}
			break
		}
	}
	return speechtotext.Result{Text: "turn on the living room lights", State: speechtotext.ResultSuccess}, nil
}

type demoAgent struct{}

func (demoAgent) SupportedLanguages() []string { return []string{"*"} }

func (demoAgent) Converse(_ context.Context, input conversation.Input) (conversation.Result, error) {
	conversationID := input.ConversationID
	if conversationID == "" {
		conversationID = "demo-conversation"
	}
	return conversation.Result{
		Speech:         "Turned on the living room lights.",
		ConversationID: conversationID,
	}, nil
}

type demoSynthesizer struct{}

func (demoSynthesizer) SupportedLanguages() []string { return []string{"en"} }

func (demoSynthesizer) SupportsOptions(language string, _ texttospeech.SynthesisOptions) bool {
	return language == "en"
}

func (demoSynthesizer) Synthesize(_ context.Context, _, _ string, _ ...texttospeech.SynthesisOption) (texttospeech.Synthesis, error) {
	return texttospeech.Synthesis{
		MediaID:   "demo-media",
		URL:       "media://demo/response.wav",
		Extension: "wav",
	}, nil
}

func newDemoRegistry() *pipeline.EngineRegistry {
	registry := pipeline.NewEngineRegistry()
	registry.RegisterWakeWord("demo_wake", demoWakeWord{})
	registry.RegisterSpeechToText("demo_stt", demoTranscriber{})
	registry.RegisterConversationAgent("demo_agent", demoAgent{})
	registry.RegisterTextToSpeech("demo_tts", demoSynthesizer{})
	return registry
}

func newDemoPipeline() pipeline.Pipeline {
	return pipeline.Pipeline{
		Name:                 "Demo",
		Language:             "en",
		ConversationEngine:   "demo_agent",
		ConversationLanguage: "en",
		SttEngine:            "demo_stt",
		SttLanguage:          "en",
		TtsEngine:            "demo_tts",
		TtsLanguage:          "en",
		WakeWordEngine:       "demo_wake",
		WakeWordID:           "ok_demo",
	}
}

// demoAudio paces silent chunks at roughly real time so the feed reads like
// a live run.
func demoAudio(ctx context.Context) iter.Seq[audio.Chunk] {
	return func(yield func(audio.Chunk) bool) {
		ticker := time.NewTicker(audio.MSPerChunk * time.Millisecond)
		defer ticker.Stop()

		for timestampMS := 0; timestampMS < 2000; timestampMS += audio.MSPerChunk {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if !yield(audio.Chunk{Audio: make([]byte, audio.BytesPerChunk), TimestampMS: timestampMS}) {
				return
			}
		}
	}
}
