package wyoming

import (
	"fmt"

	pipeline "github.com/krelja/assist-core/core"
)

// Protocol stage names used in run-pipeline messages.
const (
	StageWake   = "wake"
	StageAsr    = "asr"
	StageHandle = "handle"
	StageTts    = "tts"
)

// PipelineStage maps a protocol stage name onto a pipeline stage. Unknown
// names are an error, never a silent default.
func PipelineStage(name string) (pipeline.Stage, error) {
	switch name {
	case StageWake:
		return pipeline.StageWakeWord, nil
	case StageAsr:
		return pipeline.StageStt, nil
	case StageHandle:
		return pipeline.StageIntent, nil
	case StageTts:
		return pipeline.StageTts, nil
	}
	return "", fmt.Errorf("unknown pipeline stage %q", name)
}

// ProtocolStage is the inverse of PipelineStage.
func ProtocolStage(stage pipeline.Stage) (string, error) {
	switch stage {
	case pipeline.StageWakeWord:
		return StageWake, nil
	case pipeline.StageStt:
		return StageAsr, nil
	case pipeline.StageIntent:
		return StageHandle, nil
	case pipeline.StageTts:
		return StageTts, nil
	}
	return "", fmt.Errorf("unknown pipeline stage %q", string(stage))
}
