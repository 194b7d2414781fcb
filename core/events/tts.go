package events

type TtsStarted struct {
	Base

	Engine   string
	Language string
	Voice    string
	Text     string
}

func NewTtsStarted(engine, language, voice, text string) TtsStarted {
	return TtsStarted{
		Base:     NewBase(KindTtsStart),
		Engine:   engine,
		Language: language,
		Voice:    voice,
		Text:     text,
	}
}

// TtsEnded carries the synthesized media reference. URL is resolvable via
// the host's media layer; bridges fetch it to stream raw PCM to devices with
// speakers.
type TtsEnded struct {
	Base

	MediaID   string
	URL       string
	Extension string
}

func NewTtsEnded(mediaID, url, extension string) TtsEnded {
	return TtsEnded{Base: NewBase(KindTtsEnd), MediaID: mediaID, URL: url, Extension: extension}
}
