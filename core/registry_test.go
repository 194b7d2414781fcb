package pipeline

import "testing"

func TestEngineRegistry(t *testing.T) {
	registry := NewEngineRegistry()

	if _, ok := registry.WakeWord("wake"); ok {
		t.Fatalf("expected an empty registry")
	}

	registry.RegisterWakeWord("wake", &fakeWakeWord{})
	registry.RegisterSpeechToText("stt", &fakeTranscriber{})
	registry.RegisterConversationAgent("agent", &fakeAgent{})
	registry.RegisterTextToSpeech("tts", &fakeSynthesizer{})

	if _, ok := registry.WakeWord("wake"); !ok {
		t.Fatalf("wake word engine not registered")
	}
	if _, ok := registry.SpeechToText("stt"); !ok {
		t.Fatalf("speech-to-text engine not registered")
	}
	if _, ok := registry.ConversationAgent("agent"); !ok {
		t.Fatalf("conversation agent not registered")
	}
	if _, ok := registry.TextToSpeech("tts"); !ok {
		t.Fatalf("text-to-speech engine not registered")
	}

	if _, ok := registry.SpeechToText("wake"); ok {
		t.Fatalf("engine ids must not cross capability namespaces")
	}
}
