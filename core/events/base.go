package events

import "time"

type Kind string

const (
	KindRunStart      Kind = "run-start"
	KindRunEnd        Kind = "run-end"
	KindWakeWordStart Kind = "wake_word-start"
	KindWakeWordEnd   Kind = "wake_word-end"
	KindSttStart      Kind = "stt-start"
	KindSttVadStart   Kind = "stt-vad-start"
	KindSttVadEnd     Kind = "stt-vad-end"
	KindSttEnd        Kind = "stt-end"
	KindIntentStart   Kind = "intent-start"
	KindIntentEnd     Kind = "intent-end"
	KindTtsStart      Kind = "tts-start"
	KindTtsEnd        Kind = "tts-end"
	KindError         Kind = "error"
)

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}

// Terminal reports whether the kind closes a run.
func (k Kind) Terminal() bool {
	return k == KindRunEnd || k == KindError
}
