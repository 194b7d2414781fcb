package pipeline

import (
	"errors"
	"fmt"
)

// Error codes surfaced through error events and protocol error frames.
const (
	CodePipelineNotFound       = "pipeline-not-found"
	CodeWakeEngineMissing      = "wake-engine-missing"
	CodeWakeProviderMissing    = "wake-provider-missing"
	CodeWakeStreamFailed       = "wake-stream-failed"
	CodeWakeWordTimeout        = "wake-word-timeout"
	CodeDuplicateWakeUp        = "duplicate-wake-up-detected"
	CodeSttProviderMissing     = "stt-provider-missing"
	CodeSttUnsupportedMetadata = "stt-provider-unsupported-metadata"
	CodeSttStreamFailed        = "stt-stream-failed"
	CodeSttNoTextRecognized    = "stt-no-text-recognized"
	CodeIntentNotSupported     = "intent-not-supported"
	CodeIntentFailed           = "intent-failed"
	CodeTtsNotSupported        = "tts-not-supported"
	CodeTtsFailed              = "tts-failed"
	CodeTimeout                = "timeout"
	CodeUnknownError           = "unknown-error"
)

// RunError is the base kind for everything a pipeline run can fail with.
// Every subtype carries a machine-readable code and a human message;
// transports map the pair onto their own error frames. The base type keeps
// its own name so the embedded field does not shadow the promoted Error
// method on the subtypes.
type RunError struct {
	Code    string
	Message string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type NotFoundError struct{ RunError }

func NewNotFoundError(pipelineID string) *NotFoundError {
	return &NotFoundError{RunError{
		Code:    CodePipelineNotFound,
		Message: fmt.Sprintf("Pipeline %s not found", pipelineID),
	}}
}

type WakeWordDetectionError struct{ RunError }

func NewWakeWordDetectionError(code, message string) *WakeWordDetectionError {
	return &WakeWordDetectionError{RunError{Code: code, Message: message}}
}

type WakeWordTimeoutError struct{ WakeWordDetectionError }

func NewWakeWordTimeoutError() *WakeWordTimeoutError {
	return &WakeWordTimeoutError{WakeWordDetectionError{RunError{
		Code:    CodeWakeWordTimeout,
		Message: "Wake word was not detected",
	}}}
}

// DuplicateWakeUpError aborts a run whose wake word fired again within the
// cooldown window of the previous detection.
type DuplicateWakeUpError struct{ WakeWordDetectionError }

func NewDuplicateWakeUpError(phrase string) *DuplicateWakeUpError {
	return &DuplicateWakeUpError{WakeWordDetectionError{RunError{
		Code:    CodeDuplicateWakeUp,
		Message: fmt.Sprintf("Duplicate wake-up detected for %q", phrase),
	}}}
}

type SpeechToTextError struct{ RunError }

func NewSpeechToTextError(code, message string) *SpeechToTextError {
	return &SpeechToTextError{RunError{Code: code, Message: message}}
}

type IntentRecognitionError struct{ RunError }

func NewIntentRecognitionError(code, message string) *IntentRecognitionError {
	return &IntentRecognitionError{RunError{Code: code, Message: message}}
}

type TextToSpeechError struct{ RunError }

func NewTextToSpeechError(code, message string) *TextToSpeechError {
	return &TextToSpeechError{RunError{Code: code, Message: message}}
}

// ErrWakeWordDetectionAborted stops wake word detection without an error
// event; the run ends early as if cancelled.
var ErrWakeWordDetectionAborted = errors.New("wake word detection aborted")

// ValidationError is raised by Input.Validate before any run state exists.
// It reaches the caller directly and never becomes an error event.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid pipeline input: %s", e.Reason)
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// asRunError maps any stage failure onto the {code, message} pair emitted in
// the terminal error event.
func asRunError(err error) (code, message string) {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return notFound.Code, notFound.Message
	}
	var timeout *WakeWordTimeoutError
	if errors.As(err, &timeout) {
		return timeout.Code, timeout.Message
	}
	var duplicate *DuplicateWakeUpError
	if errors.As(err, &duplicate) {
		return duplicate.Code, duplicate.Message
	}
	var wakeWord *WakeWordDetectionError
	if errors.As(err, &wakeWord) {
		return wakeWord.Code, wakeWord.Message
	}
	var stt *SpeechToTextError
	if errors.As(err, &stt) {
		return stt.Code, stt.Message
	}
	var intentErr *IntentRecognitionError
	if errors.As(err, &intentErr) {
		return intentErr.Code, intentErr.Message
	}
	var tts *TextToSpeechError
	if errors.As(err, &tts) {
		return tts.Code, tts.Message
	}
	var base *RunError
	if errors.As(err, &base) {
		return base.Code, base.Message
	}

	return CodeUnknownError, "Unexpected error during pipeline run"
}
