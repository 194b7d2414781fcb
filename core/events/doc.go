// Package events defines the typed event contract of a pipeline run.
//
// Events are the only channel by which callers observe run progress. They
// are immutable after creation and are emitted in fixed stage order: exactly
// one run-start opens a run and exactly one terminal event (run-end on
// success, error on failure) closes it. No stage event appears before the
// previous stage's end event.
//
// Kinds use the wire names satellites and debug tooling expect:
//
//   - run-start, run-end
//   - wake_word-start, wake_word-end
//   - stt-start, stt-vad-start, stt-vad-end, stt-end
//   - intent-start, intent-end
//   - tts-start, tts-end
//   - error
package events
