package events

import "time"

type WakeWordStarted struct {
	Base

	Engine  string
	Timeout time.Duration
}

func NewWakeWordStarted(engine string, timeout time.Duration) WakeWordStarted {
	return WakeWordStarted{Base: NewBase(KindWakeWordStart), Engine: engine, Timeout: timeout}
}

// WakeWordEnded reports the detection that ended the wake word stage. An
// empty WakeWordID means the stream ended without a detection and the run
// stops after this event.
type WakeWordEnded struct {
	Base

	WakeWordID  string
	Phrase      string
	TimestampMS int
}

func NewWakeWordEnded(wakeWordID, phrase string, timestampMS int) WakeWordEnded {
	return WakeWordEnded{
		Base:        NewBase(KindWakeWordEnd),
		WakeWordID:  wakeWordID,
		Phrase:      phrase,
		TimestampMS: timestampMS,
	}
}
