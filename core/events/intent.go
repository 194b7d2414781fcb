package events

type IntentStarted struct {
	Base

	Engine         string
	Language       string
	Input          string
	ConversationID string
	DeviceID       string
}

func NewIntentStarted(engine, language, input, conversationID, deviceID string) IntentStarted {
	return IntentStarted{
		Base:           NewBase(KindIntentStart),
		Engine:         engine,
		Language:       language,
		Input:          input,
		ConversationID: conversationID,
		DeviceID:       deviceID,
	}
}

// IntentEnded carries the structured agent response. ContinueConversation
// tells bridges to keep the conversation session alive after TTS playback.
type IntentEnded struct {
	Base

	Speech               string
	ConversationID       string
	ContinueConversation bool
}

func NewIntentEnded(speech, conversationID string, continueConversation bool) IntentEnded {
	return IntentEnded{
		Base:                 NewBase(KindIntentEnd),
		Speech:               speech,
		ConversationID:       conversationID,
		ContinueConversation: continueConversation,
	}
}
