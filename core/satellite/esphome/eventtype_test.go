package esphome

import (
	"testing"
	"time"

	"github.com/krelja/assist-core/core/events"
)

func TestEventFor_CoversEveryRunEvent(t *testing.T) {
	feed := []events.Event{
		events.NewRunStarted("p1", "en", nil),
		events.NewWakeWordStarted("wake", 3*time.Second),
		events.NewWakeWordEnded("ok_home", "ok home", 120),
		events.NewSttStarted("stt", "en"),
		events.NewSttVadStarted(200),
		events.NewSttVadEnded(1400),
		events.NewSttEnded("turn on the lights"),
		events.NewIntentStarted("agent", "en", "turn on the lights", "conv-1", "dev-1"),
		events.NewIntentEnded("done", "conv-1", false),
		events.NewTtsStarted("tts", "en", "voice", "done"),
		events.NewTtsEnded("m1", "media://m1", "wav"),
		events.NewRunEnded(),
		events.NewError("stt-no-text-recognized", "No text recognized"),
	}

	for _, event := range feed {
		if _, _, err := EventFor(event); err != nil {
			t.Fatalf("no mapping for %s: %v", event.Kind(), err)
		}
	}
}

func TestEventFor_Arguments(t *testing.T) {
	eventType, args, err := EventFor(events.NewWakeWordEnded("ok_home", "ok home", 120))
	if err != nil {
		t.Fatalf("failed to map wake word end: %v", err)
	}
	if eventType != EventWakeWordEnd || args["wake_word_phrase"] != "ok home" {
		t.Fatalf("unexpected mapping: %d %v", eventType, args)
	}

	eventType, args, err = EventFor(events.NewIntentEnded("done", "conv-1", true))
	if err != nil {
		t.Fatalf("failed to map intent end: %v", err)
	}
	if eventType != EventIntentEnd || args["conversation_id"] != "conv-1" || args["continue_conversation"] != "1" {
		t.Fatalf("unexpected mapping: %d %v", eventType, args)
	}

	eventType, args, err = EventFor(events.NewError("timeout", "Run timed out"))
	if err != nil {
		t.Fatalf("failed to map error: %v", err)
	}
	if eventType != EventError || args["code"] != "timeout" || args["message"] != "Run timed out" {
		t.Fatalf("unexpected mapping: %d %v", eventType, args)
	}
}

type unknownEvent struct{ events.Base }

func TestEventFor_RejectsUnknownEvents(t *testing.T) {
	if _, _, err := EventFor(unknownEvent{events.NewBase("mystery")}); err == nil {
		t.Fatalf("expected an error for an unmapped event")
	}
}
