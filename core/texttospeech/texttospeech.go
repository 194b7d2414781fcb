// Package texttospeech defines the capability contract the pipeline expects
// from a text-to-speech engine.
package texttospeech

import "context"

// Synthesis is the result of synthesizing one utterance. MediaID is stable
// for cache lookups; URL is where the rendered audio can be fetched.
type Synthesis struct {
	MediaID   string
	URL       string
	Extension string
}

// Client is a text-to-speech engine.
type Client interface {
	SupportedLanguages() []string
	// SupportsOptions reports whether the engine can honor the language
	// and synthesis options before the run starts, so misconfiguration is
	// caught at validation time rather than mid-run.
	SupportsOptions(language string, opts SynthesisOptions) bool
	Synthesize(ctx context.Context, text, language string, opts ...SynthesisOption) (Synthesis, error)
}
