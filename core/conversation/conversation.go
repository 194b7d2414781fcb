// Package conversation defines the capability contract the pipeline expects
// from a conversation/intent agent.
package conversation

import "context"

type Input struct {
	Text           string
	Language       string
	ConversationID string
	DeviceID       string
}

// Result is the structured agent response. Speech is the text to hand to
// text-to-speech; an empty Speech skips the TTS stage. ContinueConversation
// asks the transport to immediately listen for a follow-up command.
type Result struct {
	Speech               string
	ConversationID       string
	ContinueConversation bool
}

// Agent recognizes intent in free text and produces a response.
type Agent interface {
	SupportedLanguages() []string
	Converse(ctx context.Context, input Input) (Result, error)
}
