// Package esphome bridges ESPHome voice assistant devices onto the pipeline
// runner. The device talks over its native API connection; microphone audio
// arrives either over that connection or on a per-run UDP port the bridge
// opens.
package esphome

import (
	"fmt"

	"github.com/krelja/assist-core/core/events"
)

// EventType mirrors the device API's numeric voice assistant event codes.
// The values are part of the device firmware's wire contract and must not
// change.
type EventType int32

const (
	EventError         EventType = 0
	EventRunStart      EventType = 1
	EventRunEnd        EventType = 2
	EventSttStart      EventType = 3
	EventSttEnd        EventType = 4
	EventIntentStart   EventType = 5
	EventIntentEnd     EventType = 6
	EventTtsStart      EventType = 7
	EventTtsEnd        EventType = 8
	EventWakeWordStart EventType = 9
	EventWakeWordEnd   EventType = 10
	EventSttVadStart   EventType = 11
	EventSttVadEnd     EventType = 12
)

// EventFor translates a pipeline event into the device's numeric code plus
// string arguments. Every event kind a run can emit has a mapping; an
// unmapped kind is a programming error surfaced as such.
func EventFor(event events.Event) (EventType, map[string]string, error) {
	switch e := event.(type) {
	case events.RunStarted:
		return EventRunStart, nil, nil
	case events.RunEnded:
		return EventRunEnd, nil, nil
	case events.WakeWordStarted:
		return EventWakeWordStart, nil, nil
	case events.WakeWordEnded:
		return EventWakeWordEnd, map[string]string{"wake_word_phrase": e.Phrase}, nil
	case events.SttStarted:
		return EventSttStart, nil, nil
	case events.SttVadStarted:
		return EventSttVadStart, nil, nil
	case events.SttVadEnded:
		return EventSttVadEnd, nil, nil
	case events.SttEnded:
		return EventSttEnd, map[string]string{"text": e.Text}, nil
	case events.IntentStarted:
		return EventIntentStart, nil, nil
	case events.IntentEnded:
		args := map[string]string{"conversation_id": e.ConversationID}
		if e.ContinueConversation {
			args["continue_conversation"] = "1"
		}
		return EventIntentEnd, args, nil
	case events.TtsStarted:
		return EventTtsStart, map[string]string{"text": e.Text}, nil
	case events.TtsEnded:
		return EventTtsEnd, map[string]string{"url": e.URL}, nil
	case events.Error:
		return EventError, map[string]string{"code": e.Code, "message": e.Message}, nil
	}
	return 0, nil, fmt.Errorf("no device event mapping for %q", string(event.Kind()))
}
