package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// Every subtype must carry the promoted Error method from the base type.
var (
	_ error = &NotFoundError{}
	_ error = &WakeWordDetectionError{}
	_ error = &WakeWordTimeoutError{}
	_ error = &DuplicateWakeUpError{}
	_ error = &SpeechToTextError{}
	_ error = &IntentRecognitionError{}
	_ error = &TextToSpeechError{}
)

func TestRunErrorSubtypesFormatCodeAndMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{name: "not found", err: NewNotFoundError("p1"), code: CodePipelineNotFound},
		{name: "wake word detection", err: NewWakeWordDetectionError(CodeWakeStreamFailed, "boom"), code: CodeWakeStreamFailed},
		{name: "wake word timeout", err: NewWakeWordTimeoutError(), code: CodeWakeWordTimeout},
		{name: "duplicate wake up", err: NewDuplicateWakeUpError("ok home"), code: CodeDuplicateWakeUp},
		{name: "speech to text", err: NewSpeechToTextError(CodeSttStreamFailed, "boom"), code: CodeSttStreamFailed},
		{name: "intent", err: NewIntentRecognitionError(CodeIntentFailed, "boom"), code: CodeIntentFailed},
		{name: "text to speech", err: NewTextToSpeechError(CodeTtsFailed, "boom"), code: CodeTtsFailed},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			message := c.err.Error()
			if !strings.HasPrefix(message, c.code+": ") {
				t.Fatalf("got %q, expected prefix %q", message, c.code+": ")
			}
			if message == c.code+": " {
				t.Fatalf("expected a message after the code, got %q", message)
			}
		})
	}
}

func TestAsRunError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{name: "not found", err: NewNotFoundError("p1"), code: CodePipelineNotFound},
		{name: "wake word timeout", err: NewWakeWordTimeoutError(), code: CodeWakeWordTimeout},
		{name: "duplicate wake up", err: NewDuplicateWakeUpError("ok home"), code: CodeDuplicateWakeUp},
		{name: "wake word detection", err: NewWakeWordDetectionError(CodeWakeStreamFailed, "boom"), code: CodeWakeStreamFailed},
		{name: "speech to text", err: NewSpeechToTextError(CodeSttNoTextRecognized, "nothing"), code: CodeSttNoTextRecognized},
		{name: "intent", err: NewIntentRecognitionError(CodeIntentFailed, "boom"), code: CodeIntentFailed},
		{name: "text to speech", err: NewTextToSpeechError(CodeTtsFailed, "boom"), code: CodeTtsFailed},
		{name: "bare run error", err: &RunError{Code: CodeTimeout, Message: "Run timed out"}, code: CodeTimeout},
		{name: "wrapped", err: fmt.Errorf("stage failed: %w", NewWakeWordTimeoutError()), code: CodeWakeWordTimeout},
		{name: "unknown", err: errors.New("boom"), code: CodeUnknownError},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, message := asRunError(c.err)
			if code != c.code {
				t.Fatalf("got code %s, expected %s", code, c.code)
			}
			if message == "" {
				t.Fatalf("expected a message for code %s", code)
			}
		})
	}
}
