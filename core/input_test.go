package pipeline

import (
	"testing"
)

func TestInputValidate(t *testing.T) {
	stream := chunkStream(1)

	cases := []struct {
		name  string
		input Input
		valid bool
	}{
		{
			name:  "wake word to tts with stream",
			input: Input{StartStage: StageWakeWord, EndStage: StageTts, SttStream: stream},
			valid: true,
		},
		{
			name:  "stt only with stream",
			input: Input{StartStage: StageStt, EndStage: StageStt, SttStream: stream},
			valid: true,
		},
		{
			name:  "intent with input",
			input: Input{StartStage: StageIntent, EndStage: StageIntent, IntentInput: "hello"},
			valid: true,
		},
		{
			name:  "tts with input",
			input: Input{StartStage: StageTts, EndStage: StageTts, TtsInput: "hello"},
			valid: true,
		},
		{
			name:  "missing stages",
			input: Input{},
			valid: false,
		},
		{
			name:  "unknown stage name",
			input: Input{StartStage: Stage("asr"), EndStage: StageTts, SttStream: stream},
			valid: false,
		},
		{
			name:  "end stage precedes start stage",
			input: Input{StartStage: StageIntent, EndStage: StageStt, SttStream: stream, IntentInput: "hello"},
			valid: false,
		},
		{
			name:  "wake word start without stream",
			input: Input{StartStage: StageWakeWord, EndStage: StageTts},
			valid: false,
		},
		{
			name:  "stt start without stream",
			input: Input{StartStage: StageStt, EndStage: StageTts},
			valid: false,
		},
		{
			name:  "intent start without input",
			input: Input{StartStage: StageIntent, EndStage: StageTts, IntentInput: "   "},
			valid: false,
		},
		{
			name:  "tts start without input",
			input: Input{StartStage: StageTts, EndStage: StageTts},
			valid: false,
		},
		{
			name: "negative volume multiplier",
			input: Input{
				StartStage: StageWakeWord, EndStage: StageTts,
				SttStream: stream, VolumeMultiplier: -0.5,
			},
			valid: false,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.input.Validate()
			if c.valid && err != nil {
				t.Fatalf("expected valid input, got %v", err)
			}
			if !c.valid && err == nil {
				t.Fatalf("expected validation to fail")
			}
		})
	}
}

func TestStageOrdering(t *testing.T) {
	if !StageWakeWord.Before(StageStt) || !StageStt.Before(StageIntent) || !StageIntent.Before(StageTts) {
		t.Fatalf("stage ordering broken")
	}
	if StageTts.Before(StageWakeWord) {
		t.Fatalf("tts must not precede wake_word")
	}
	if StageIntent.Before(StageIntent) {
		t.Fatalf("a stage must not precede itself")
	}
}

func TestStageNext(t *testing.T) {
	if StageWakeWord.next() != StageStt {
		t.Fatalf("wake_word must advance to stt")
	}
	if StageTts.next() != stageDone {
		t.Fatalf("tts must advance to done")
	}
}
