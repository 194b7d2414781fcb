package events

// RunStarted opens a pipeline run.
type RunStarted struct {
	Base

	PipelineID string
	Language   string

	// RunnerData carries transport-specific extras announced to the
	// caller, e.g. a binary handler id and the overall run timeout.
	RunnerData any
}

func NewRunStarted(pipelineID, language string, runnerData any) RunStarted {
	return RunStarted{
		Base:       NewBase(KindRunStart),
		PipelineID: pipelineID,
		Language:   language,
		RunnerData: runnerData,
	}
}

// RunEnded closes a successful (or early-returned) run.
type RunEnded struct {
	Base
}

func NewRunEnded() RunEnded {
	return RunEnded{Base: NewBase(KindRunEnd)}
}

// Error closes a failed run with a machine-readable code and a human
// message.
type Error struct {
	Base

	Code    string
	Message string
}

func NewError(code, message string) Error {
	return Error{Base: NewBase(KindError), Code: code, Message: message}
}
