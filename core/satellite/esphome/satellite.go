package esphome

import (
	"context"
	"fmt"
	"sync"

	pipeline "github.com/krelja/assist-core/core"
	"github.com/krelja/assist-core/core/audio"
	"github.com/krelja/assist-core/core/events"
	"github.com/krelja/assist-core/core/satellite"
)

// Connection is the device API link the bridge answers on. Implementations
// wrap whatever transport carries the device connection.
type Connection interface {
	SendEvent(ctx context.Context, eventType EventType, args map[string]string) error
}

// RunRequest is a device-initiated pipeline run.
type RunRequest struct {
	// UseWakeWord asks the server to run wake word detection on the
	// streamed audio; otherwise the device already woke up and the run
	// starts at speech-to-text.
	UseWakeWord bool
	// APIAudio means microphone audio arrives through HandleAudio calls
	// on the device connection instead of a UDP port.
	APIAudio       bool
	ConversationID string
}

// Satellite serves one ESPHome device. At most one run is active at a time;
// a new request aborts the previous run.
type Satellite struct {
	runner *pipeline.Runner
	device *satellite.Device
	conn   Connection

	mu          sync.Mutex
	queue       *audio.FrameQueue
	server      *AudioServer
	cancel      context.CancelFunc
	done        chan struct{}
	timestampMS int
}

func NewSatellite(runner *pipeline.Runner, device *satellite.Device, conn Connection) *Satellite {
	return &Satellite{runner: runner, device: device, conn: conn}
}

// StartRun begins a pipeline run for the device and returns the UDP port it
// should stream audio to, or 0 when the request uses API audio.
func (s *Satellite) StartRun(ctx context.Context, request RunRequest) (int, error) {
	s.Abort()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "esphome.run")

	queue := audio.NewFrameQueue()
	runCtx, cancel := context.WithCancel(ctx)

	port := 0
	var server *AudioServer
	if !request.APIAudio {
		var err error
		if server, err = StartAudioServer(queue); err != nil {
			cancel()
			span.End()
			return 0, fmt.Errorf("failed to start run: %w", err)
		}
		port = server.Port()
	}

	startStage := pipeline.StageStt
	if request.UseWakeWord {
		startStage = pipeline.StageWakeWord
	}

	input := pipeline.Input{
		PipelineID:       s.device.PipelineID(),
		StartStage:       startStage,
		EndStage:         pipeline.StageTts,
		SttStream:        queue.Chunks(runCtx),
		ConversationID:   request.ConversationID,
		DeviceID:         s.device.ID(),
		VolumeMultiplier: s.device.VolumeMultiplier(),
		TtsAudioOutput:   "wav",
		Sink: pipeline.SinkFunc(func(event events.Event) {
			s.forwardEvent(runCtx, event)
		}),
	}

	done := make(chan struct{})
	s.queue = queue
	s.server = server
	s.cancel = cancel
	s.done = done
	s.timestampMS = 0

	go func() {
		defer close(done)
		defer span.End()
		defer cancel()
		if err := s.runner.Run(runCtx, input); err != nil {
			logger.Warn("pipeline run failed", "device", s.device.ID(), "error", err)
		}
		if server != nil {
			_ = server.Close()
		}
	}()

	return port, nil
}

// HandleAudio delivers API-transported microphone audio. Audio from a muted
// device is dropped.
func (s *Satellite) HandleAudio(data []byte) {
	if len(data) == 0 || s.device.Muted() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue == nil {
		return
	}
	s.queue.Push(audio.Chunk{Audio: data, TimestampMS: s.timestampMS})
	s.timestampMS += int(audio.GetDefaultEncodingInfo().Duration(data).Milliseconds())
}

// StopAudio marks the device's audio stream complete; queued audio is still
// consumed.
func (s *Satellite) StopAudio() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue != nil {
		s.queue.Close()
	}
}

// Abort cancels the in-flight run, if any, discarding queued audio, and
// waits for its teardown.
func (s *Satellite) Abort() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done, s.queue, s.server = nil, nil, nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Satellite) forwardEvent(ctx context.Context, event events.Event) {
	eventType, args, err := EventFor(event)
	if err != nil {
		logger.Warn("dropping unmappable pipeline event", "error", err)
		return
	}
	if err := s.conn.SendEvent(ctx, eventType, args); err != nil {
		logger.Warn("failed to send device event",
			"device", s.device.ID(),
			"event_type", int32(eventType),
			"error", err,
		)
	}

	// The device stops streaming once the run is over; release the port
	// without waiting for it to notice.
	if event.Kind().Terminal() {
		s.mu.Lock()
		if s.server != nil {
			_ = s.server.Close()
			s.server = nil
		}
		s.mu.Unlock()
	}
}
