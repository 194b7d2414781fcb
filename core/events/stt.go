package events

type SttStarted struct {
	Base

	Engine   string
	Language string
}

func NewSttStarted(engine, language string) SttStarted {
	return SttStarted{Base: NewBase(KindSttStart), Engine: engine, Language: language}
}

// SttVadStarted passes through the provider-reported start of the voice
// command.
type SttVadStarted struct {
	Base

	TimestampMS int
}

func NewSttVadStarted(timestampMS int) SttVadStarted {
	return SttVadStarted{Base: NewBase(KindSttVadStart), TimestampMS: timestampMS}
}

// SttVadEnded passes through the provider-reported end of the voice command.
type SttVadEnded struct {
	Base

	TimestampMS int
}

func NewSttVadEnded(timestampMS int) SttVadEnded {
	return SttVadEnded{Base: NewBase(KindSttVadEnd), TimestampMS: timestampMS}
}

type SttEnded struct {
	Base

	Text string
}

func NewSttEnded(text string) SttEnded {
	return SttEnded{Base: NewBase(KindSttEnd), Text: text}
}
