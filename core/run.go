package pipeline

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/krelja/assist-core/core/audio"
	"github.com/krelja/assist-core/core/conversation"
	"github.com/krelja/assist-core/core/events"
	"github.com/krelja/assist-core/core/speechtotext"
	"github.com/krelja/assist-core/core/texttospeech"
	"github.com/krelja/assist-core/core/wakeword"
	"github.com/krelja/assist-core/internal/metrics"
)

const (
	// DefaultWakeWordTimeout bounds how long a run listens for a wake word
	// before failing. Pass NoWakeWordTimeout to listen indefinitely.
	DefaultWakeWordTimeout = 3 * time.Second
	NoWakeWordTimeout      = time.Duration(-1)

	// WakeWordCooldown suppresses a second run triggered by the tail of
	// the same utterance, e.g. when two satellites hear the same wake
	// word.
	WakeWordCooldown = 2 * time.Second
)

// errEarlyRunEnd ends a run with run-end before its end stage: the wake word
// stream ended without a detection, detection was aborted, or the caller
// cancelled the context.
var errEarlyRunEnd = errors.New("run ended early")

// Runner executes pipeline runs against a store and an engine registry. It
// owns the cross-run state: the wake word cooldown ledger and the set of
// in-flight runs, whose wake word detection is aborted when their pipeline
// is updated or deleted.
type Runner struct {
	store    *Store
	registry *EngineRegistry
	recorder *audio.DebugRecorder
	metrics  *metrics.Recorder

	mu         sync.Mutex
	lastWakeUp map[string]time.Time
	active     map[string]*run
}

type RunnerOption func(*Runner)

// WithDebugRecorder enables WAV capture of the wake and stt audio of every
// run.
func WithDebugRecorder(recorder *audio.DebugRecorder) RunnerOption {
	return func(r *Runner) {
		r.recorder = recorder
	}
}

// WithMetrics enables Prometheus reporting of run outcomes and stage
// durations.
func WithMetrics(recorder *metrics.Recorder) RunnerOption {
	return func(r *Runner) {
		r.metrics = recorder
	}
}

func NewRunner(store *Store, registry *EngineRegistry, opts ...RunnerOption) *Runner {
	runner := &Runner{
		store:      store,
		registry:   registry,
		lastWakeUp: map[string]time.Time{},
		active:     map[string]*run{},
	}
	for _, opt := range opts {
		opt(runner)
	}
	store.OnUpdate(runner.abortRunsFor)
	return runner
}

// Run validates the input, resolves the pipeline and executes the run to its
// terminal event. Validation failures are returned directly and emit no
// events; failures after the run has started are emitted as a terminal error
// event and also returned.
func (r *Runner) Run(ctx context.Context, input Input) error {
	if err := input.Validate(); err != nil {
		return err
	}
	pipeline, err := r.store.Get(input.PipelineID)
	if err != nil {
		return fmt.Errorf("failed to resolve pipeline: %w", err)
	}

	if err := r.validateTextToSpeech(pipeline, input); err != nil {
		return err
	}

	u := &run{
		id:             uuid.NewString(),
		runner:         r,
		pipeline:       pipeline,
		input:          input,
		sink:           input.Sink,
		cursor:         input.StartStage,
		endStage:       input.EndStage,
		conversationID: input.ConversationID,
		intentInput:    input.IntentInput,
		ttsInput:       input.TtsInput,
		startedAt:      time.Now(),
		wakeTimeout:    resolveWakeWordTimeout(input.WakeWordTimeout),
	}
	if input.SttStream != nil {
		multiplier := input.VolumeMultiplier
		if multiplier == 0 {
			multiplier = 1.0
		}
		u.sttStream = processAudioStream(input.SttStream, multiplier)
	}

	r.register(u)
	defer r.unregister(u)

	return u.execute(ctx)
}

// validateTextToSpeech rejects language and voice combinations the engine
// cannot honor before any event is emitted. A missing engine is not a
// validation failure; it surfaces as a stage error event instead.
func (r *Runner) validateTextToSpeech(pipeline Pipeline, input Input) error {
	if input.EndStage.Before(StageTts) || !pipeline.SupportsTextToSpeech() {
		return nil
	}
	client, ok := r.registry.TextToSpeech(pipeline.TtsEngine)
	if !ok {
		return nil
	}
	options := texttospeech.ApplyOptions(ttsOptions(pipeline, input)...)
	if !client.SupportsOptions(pipeline.TtsLanguage, options) {
		return newValidationError(
			"text-to-speech engine %s does not support language %s with the requested options",
			pipeline.TtsEngine, pipeline.TtsLanguage,
		)
	}
	return nil
}

func (r *Runner) register(u *run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[u.id] = u
}

func (r *Runner) unregister(u *run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, u.id)
}

// abortRunsFor stops wake word detection on every in-flight run of an
// updated or deleted pipeline; those runs end early with run-end.
func (r *Runner) abortRunsFor(pipelineID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, active := range r.active {
		if active.pipeline.ID == pipelineID {
			active.abortWakeWord()
		}
	}
}

// checkWakeUpCooldown records a detection and rejects it if the same phrase
// already fired within the cooldown window.
func (r *Runner) checkWakeUpCooldown(phrase string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if last, ok := r.lastWakeUp[phrase]; ok && at.Sub(last) < WakeWordCooldown {
		r.metrics.WakeWordCooldownHit()
		return NewDuplicateWakeUpError(phrase)
	}
	r.lastWakeUp[phrase] = at
	return nil
}

func resolveWakeWordTimeout(timeout time.Duration) time.Duration {
	switch {
	case timeout == 0:
		return DefaultWakeWordTimeout
	case timeout < 0:
		return 0
	default:
		return timeout
	}
}

// run is the per-execution state machine. The stage cursor only moves
// forward; exactly one terminal event (run-end or error) closes the feed.
type run struct {
	id       string
	runner   *Runner
	pipeline Pipeline
	input    Input
	sink     Sink

	cursor      Stage
	endStage    Stage
	wakeTimeout time.Duration
	startedAt   time.Time

	events []events.Event

	abortMu   sync.Mutex
	wakeAbort context.CancelCauseFunc

	sttStream      iter.Seq[audio.Chunk]
	intentInput    string
	ttsInput       string
	conversationID string
	skipTts        bool
}

func (u *run) execute(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("pipeline.id", u.pipeline.ID),
		attribute.String("pipeline.run_id", u.id),
		attribute.String("pipeline.start_stage", string(u.input.StartStage)),
		attribute.String("pipeline.end_stage", string(u.endStage)),
	))
	defer span.End()
	defer u.finish()

	u.process(events.NewRunStarted(u.pipeline.ID, u.pipeline.Language, u.input.RunnerData))

	err := u.runStages(ctx)
	switch {
	case err == nil, errors.Is(err, errEarlyRunEnd):
		u.process(events.NewRunEnded())
		u.runner.metrics.RunFinished("ok")
		return nil
	default:
		code, message := asRunError(err)
		u.process(events.NewError(code, message))
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline run failed")
		u.runner.metrics.RunFinished(code)
		return err
	}
}

func (u *run) runStages(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return u.contextError(ctx)
		}

		stage := u.cursor
		started := time.Now()
		var err error
		switch stage {
		case StageWakeWord:
			err = u.wakeWordStage(ctx)
		case StageStt:
			err = u.speechToTextStage(ctx)
		case StageIntent:
			err = u.intentStage(ctx)
		case StageTts:
			err = u.textToSpeechStage(ctx)
		default:
			return fmt.Errorf("unexpected stage cursor %q", stage)
		}
		u.runner.metrics.StageFinished(string(stage), time.Since(started))
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return u.contextError(ctx)
			}
			return err
		}

		if stage == u.endStage {
			return nil
		}
		u.cursor = stage.next()
		if u.cursor == stageDone {
			return nil
		}
		if u.cursor == StageTts && u.skipTts {
			return nil
		}
	}
}

// contextError maps cancellation onto an early run-end and a deadline onto a
// timeout error event.
func (u *run) contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &RunError{Code: CodeTimeout, Message: "Run timed out"}
	}
	return errEarlyRunEnd
}

func (u *run) process(event events.Event) {
	u.events = append(u.events, event)
	logger.Debug("pipeline event",
		"run_id", u.id,
		"pipeline_id", u.pipeline.ID,
		"kind", string(event.Kind()),
	)
	if u.sink != nil {
		u.sink.Handle(event)
	}
}

func (u *run) finish() {
	u.runner.store.recordDebugRun(u.pipeline.ID, DebugRun{
		RunID:     u.id,
		Timestamp: u.startedAt,
		Events:    u.events,
	})
}

func (u *run) wakeWordStage(ctx context.Context) error {
	engineID := u.pipeline.WakeWordEngine
	if engineID == "" {
		return NewWakeWordDetectionError(CodeWakeEngineMissing, "No wake word engine configured")
	}
	entity, ok := u.runner.registry.WakeWord(engineID)
	if !ok {
		return NewWakeWordDetectionError(CodeWakeProviderMissing,
			fmt.Sprintf("Wake word engine %s is not available", engineID))
	}

	u.process(events.NewWakeWordStarted(engineID, u.wakeTimeout))

	wakeCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if u.wakeTimeout > 0 {
		var cancelTimeout context.CancelFunc
		wakeCtx, cancelTimeout = context.WithTimeoutCause(wakeCtx, u.wakeTimeout, NewWakeWordTimeoutError())
		defer cancelTimeout()
	}
	u.setWakeAbort(cancel)
	defer u.setWakeAbort(nil)

	u.beginDebugFile("00_wake")
	preRoll := newPreRollBuffer(u.input.PreRollDuration)
	source := u.sttStream
	observed := func(yield func(audio.Chunk) bool) {
		for chunk := range source {
			// Once the stage is over (timeout, abort, run cancellation) the
			// detection goroutine must not keep consuming the shared stream;
			// ending its iteration here lets it unwind promptly.
			if wakeCtx.Err() != nil {
				return
			}
			preRoll.push(chunk)
			u.recordDebugChunk(chunk)
			if !yield(chunk) {
				return
			}
		}
	}

	type wakeOutcome struct {
		detection *wakeword.Detection
		err       error
	}
	outcomeCh := make(chan wakeOutcome, 1)
	go func() {
		detection, err := entity.ProcessAudioStream(wakeCtx, observed, u.pipeline.WakeWordID)
		outcomeCh <- wakeOutcome{detection: detection, err: err}
	}()

	var detection *wakeword.Detection
	var err error
	select {
	case outcome := <-outcomeCh:
		detection, err = outcome.detection, outcome.err
	case <-wakeCtx.Done():
		// The engine may be blocked waiting for audio that never comes;
		// the stage outcome is decided by the cancellation cause and the
		// detection goroutine unwinds when the source stream ends.
		if cause := wakeStageCause(wakeCtx, ctx); cause != nil {
			return cause
		}
		return errEarlyRunEnd
	}

	if cause := wakeStageCause(wakeCtx, ctx); cause != nil {
		return cause
	}
	if err != nil {
		return NewWakeWordDetectionError(CodeWakeStreamFailed,
			fmt.Sprintf("wake word detection failed: %s", err))
	}
	if detection == nil {
		// The stream ended before anything was detected; the run ends
		// early after reporting the non-detection.
		u.process(events.NewWakeWordEnded("", "", 0))
		return errEarlyRunEnd
	}

	if err := u.runner.checkWakeUpCooldown(detection.Phrase, time.Now()); err != nil {
		return err
	}

	u.process(events.NewWakeWordEnded(detection.WakeWordID, detection.Phrase, detection.TimestampMS))

	// Audio spoken before and during detection is replayed into stt so the
	// user does not need to pause between the wake word and the command.
	prefix := append(preRoll.drain(), detection.QueuedAudio...)
	u.sttStream = prependChunks(prefix, source)
	return nil
}

// wakeStageCause distinguishes the ways wake word detection can stop early:
// an abort or timeout on the stage's own context versus cancellation of the
// whole run.
func wakeStageCause(wakeCtx, runCtx context.Context) error {
	if runCtx.Err() != nil {
		return runCtx.Err()
	}
	cause := context.Cause(wakeCtx)
	if cause == nil {
		return nil
	}
	if errors.Is(cause, ErrWakeWordDetectionAborted) {
		return errEarlyRunEnd
	}
	var timeout *WakeWordTimeoutError
	if errors.As(cause, &timeout) {
		return timeout
	}
	return nil
}

func (u *run) setWakeAbort(cancel context.CancelCauseFunc) {
	u.abortMu.Lock()
	defer u.abortMu.Unlock()
	u.wakeAbort = cancel
}

// abortWakeWord stops an in-flight wake word stage without an error event.
// It is a no-op outside that stage.
func (u *run) abortWakeWord() {
	u.abortMu.Lock()
	defer u.abortMu.Unlock()
	if u.wakeAbort != nil {
		u.wakeAbort(ErrWakeWordDetectionAborted)
	}
}

func (u *run) speechToTextStage(ctx context.Context) error {
	engineID := u.pipeline.SttEngine
	if engineID == "" {
		return NewSpeechToTextError(CodeSttProviderMissing, "No speech-to-text engine configured")
	}
	client, ok := u.runner.registry.SpeechToText(engineID)
	if !ok {
		return NewSpeechToTextError(CodeSttProviderMissing,
			fmt.Sprintf("Speech-to-text engine %s is not available", engineID))
	}

	language := u.pipeline.SttLanguage
	if language == "" {
		language = u.pipeline.Language
	}
	metadata := speechtotext.DefaultMetadata(language)
	if u.input.SttMetadata != nil {
		metadata = *u.input.SttMetadata
		if metadata.Language == "" {
			metadata.Language = language
		}
	}
	if !client.CheckMetadata(metadata) {
		return NewSpeechToTextError(CodeSttUnsupportedMetadata,
			fmt.Sprintf("Speech-to-text engine %s does not support the audio format", engineID))
	}

	u.process(events.NewSttStarted(engineID, metadata.Language))

	u.beginDebugFile("01_stt")
	source := u.sttStream
	observed := func(yield func(audio.Chunk) bool) {
		for chunk := range source {
			u.recordDebugChunk(chunk)
			if !yield(chunk) {
				return
			}
		}
	}

	result, err := client.Transcribe(ctx, metadata, observed,
		speechtotext.WithSpeechStartedCallback(func(timestampMS int) {
			u.process(events.NewSttVadStarted(timestampMS))
		}),
		speechtotext.WithSpeechEndedCallback(func(timestampMS int) {
			u.process(events.NewSttVadEnded(timestampMS))
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return NewSpeechToTextError(CodeSttStreamFailed,
			fmt.Sprintf("speech-to-text failed: %s", err))
	}
	if result.State != speechtotext.ResultSuccess {
		return NewSpeechToTextError(CodeSttStreamFailed, "Speech-to-text engine reported an error")
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return NewSpeechToTextError(CodeSttNoTextRecognized, "No text recognized")
	}

	u.process(events.NewSttEnded(text))
	u.intentInput = text
	return nil
}

func (u *run) intentStage(ctx context.Context) error {
	engineID := u.pipeline.ConversationEngine
	agent, ok := u.runner.registry.ConversationAgent(engineID)
	if !ok {
		return NewIntentRecognitionError(CodeIntentNotSupported,
			fmt.Sprintf("Conversation agent %s is not available", engineID))
	}
	language := u.pipeline.ConversationLanguage
	if language == "" {
		language = u.pipeline.Language
	}
	if !languageSupported(agent.SupportedLanguages(), language) {
		return NewIntentRecognitionError(CodeIntentNotSupported,
			fmt.Sprintf("Conversation agent %s does not support language %s", engineID, language))
	}

	u.process(events.NewIntentStarted(engineID, language, u.intentInput, u.conversationID, u.input.DeviceID))

	result, err := agent.Converse(ctx, conversation.Input{
		Text:           u.intentInput,
		Language:       language,
		ConversationID: u.conversationID,
		DeviceID:       u.input.DeviceID,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return NewIntentRecognitionError(CodeIntentFailed,
			fmt.Sprintf("intent recognition failed: %s", err))
	}

	u.conversationID = result.ConversationID
	u.ttsInput = result.Speech
	u.process(events.NewIntentEnded(result.Speech, result.ConversationID, result.ContinueConversation))

	if strings.TrimSpace(result.Speech) == "" {
		logger.Debug("intent produced no speech, skipping text-to-speech", "run_id", u.id)
		u.skipTts = true
	}
	return nil
}

func (u *run) textToSpeechStage(ctx context.Context) error {
	engineID := u.pipeline.TtsEngine
	if engineID == "" {
		return NewTextToSpeechError(CodeTtsNotSupported, "No text-to-speech engine configured")
	}
	client, ok := u.runner.registry.TextToSpeech(engineID)
	if !ok {
		return NewTextToSpeechError(CodeTtsNotSupported,
			fmt.Sprintf("Text-to-speech engine %s is not available", engineID))
	}
	language := u.pipeline.TtsLanguage

	u.process(events.NewTtsStarted(engineID, language, u.pipeline.TtsVoice, u.ttsInput))

	synthesis, err := client.Synthesize(ctx, u.ttsInput, language, ttsOptions(u.pipeline, u.input)...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return NewTextToSpeechError(CodeTtsFailed,
			fmt.Sprintf("text-to-speech failed: %s", err))
	}

	u.process(events.NewTtsEnded(synthesis.MediaID, synthesis.URL, synthesis.Extension))
	return nil
}

func ttsOptions(pipeline Pipeline, input Input) []texttospeech.SynthesisOption {
	var opts []texttospeech.SynthesisOption
	if pipeline.TtsVoice != "" {
		opts = append(opts, texttospeech.WithVoice(pipeline.TtsVoice))
	}
	if input.TtsAudioOutput != "" {
		opts = append(opts, texttospeech.WithPreferredFormat(input.TtsAudioOutput))
	}
	return opts
}

// languageSupported treats an empty list and the "*" wildcard as matching
// everything.
func languageSupported(supported []string, language string) bool {
	if len(supported) == 0 {
		return true
	}
	for _, candidate := range supported {
		if candidate == "*" || candidate == language {
			return true
		}
	}
	return false
}

func (u *run) beginDebugFile(prefix string) {
	if u.runner.recorder == nil {
		return
	}
	u.runner.recorder.BeginFile(fmt.Sprintf("%s-%s", prefix, u.id))
}

func (u *run) recordDebugChunk(chunk audio.Chunk) {
	if u.runner.recorder == nil {
		return
	}
	u.runner.recorder.WriteChunk(chunk.Audio)
}

// preRollBuffer keeps a sliding window of the most recent audio during wake
// word detection so it can be replayed into speech-to-text.
type preRollBuffer struct {
	maxChunks int
	chunks    []audio.Chunk
}

func newPreRollBuffer(window time.Duration) *preRollBuffer {
	return &preRollBuffer{maxChunks: int(window / (audio.MSPerChunk * time.Millisecond))}
}

func (b *preRollBuffer) push(chunk audio.Chunk) {
	if b.maxChunks <= 0 {
		return
	}
	b.chunks = append(b.chunks, chunk)
	if len(b.chunks) > b.maxChunks {
		b.chunks = b.chunks[len(b.chunks)-b.maxChunks:]
	}
}

func (b *preRollBuffer) drain() []audio.Chunk {
	chunks := b.chunks
	b.chunks = nil
	return chunks
}

func prependChunks(prefix []audio.Chunk, rest iter.Seq[audio.Chunk]) iter.Seq[audio.Chunk] {
	return func(yield func(audio.Chunk) bool) {
		for _, chunk := range prefix {
			if !yield(chunk) {
				return
			}
		}
		if rest == nil {
			return
		}
		for chunk := range rest {
			if !yield(chunk) {
				return
			}
		}
	}
}

// processAudioStream re-frames arbitrary incoming audio into fixed 10ms
// chunks with a monotonic stream timestamp, applying the volume multiplier
// on the way through. The framing state lives outside the iterator so the
// stream can be ranged by the wake word stage and resumed by stt without
// resetting timestamps.
func processAudioStream(source iter.Seq[audio.Chunk], multiplier float64) iter.Seq[audio.Chunk] {
	var pending []byte
	timestampMS := 0

	return func(yield func(audio.Chunk) bool) {
		emit := func(frame []byte) bool {
			if multiplier != 1.0 {
				frame = applyVolume(frame, multiplier)
			}
			ok := yield(audio.Chunk{Audio: frame, TimestampMS: timestampMS})
			timestampMS += audio.MSPerChunk
			return ok
		}

		for chunk := range source {
			pending = append(pending, chunk.Audio...)
			for len(pending) >= audio.BytesPerChunk {
				frame := make([]byte, audio.BytesPerChunk)
				copy(frame, pending[:audio.BytesPerChunk])
				pending = pending[audio.BytesPerChunk:]
				if !emit(frame) {
					return
				}
			}
		}
		if len(pending) > 0 {
			frame := pending
			pending = nil
			emit(frame)
		}
	}
}

// applyVolume scales 16-bit little-endian PCM samples, clamping at the
// sample range.
func applyVolume(frame []byte, multiplier float64) []byte {
	adjusted := make([]byte, len(frame))
	copy(adjusted, frame)
	for i := 0; i+1 < len(adjusted); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(adjusted[i:]))) * multiplier
		if sample > math.MaxInt16 {
			sample = math.MaxInt16
		} else if sample < math.MinInt16 {
			sample = math.MinInt16
		}
		binary.LittleEndian.PutUint16(adjusted[i:], uint16(int16(sample)))
	}
	return adjusted
}
