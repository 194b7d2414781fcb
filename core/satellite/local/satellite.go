package local

import (
	"context"
	"fmt"

	pipeline "github.com/krelja/assist-core/core"
	"github.com/krelja/assist-core/core/audio"
	"github.com/krelja/assist-core/core/events"
	"github.com/krelja/assist-core/core/satellite"
)

// Satellite loops pipeline runs over the local audio hardware: capture feeds
// each run, synthesized responses play on the speaker, and when a run ends
// the next one starts listening again.
type Satellite struct {
	runner *pipeline.Runner
	device *satellite.Device
	client *Client

	extraSink pipeline.Sink
}

type Option func(*Satellite)

// WithEventSink mirrors every run's events to an additional sink, e.g. a
// monitoring UI.
func WithEventSink(sink pipeline.Sink) Option {
	return func(s *Satellite) {
		s.extraSink = sink
	}
}

func NewSatellite(runner *pipeline.Runner, device *satellite.Device, client *Client, opts ...Option) *Satellite {
	s := &Satellite{runner: runner, device: device, client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes wake-word-to-tts runs back to back until ctx is cancelled.
func (s *Satellite) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.runOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("pipeline run failed, listening again", "error", err)
		}
	}
}

func (s *Satellite) runOnce(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := audio.NewFrameQueue()
	info := audio.GetDefaultEncodingInfo()
	timestampMS := 0
	err := s.client.StartCapture(func(pcm []byte) {
		if s.device.Muted() {
			return
		}
		chunk := make([]byte, len(pcm))
		copy(chunk, pcm)
		queue.Push(audio.Chunk{Audio: chunk, TimestampMS: timestampMS})
		timestampMS += int(info.Duration(chunk).Milliseconds())
	})
	if err != nil {
		return fmt.Errorf("failed to start microphone: %w", err)
	}
	defer func() {
		_ = s.client.StopCapture()
		queue.Close()
	}()

	input := pipeline.Input{
		PipelineID:       s.device.PipelineID(),
		StartStage:       pipeline.StageWakeWord,
		EndStage:         pipeline.StageTts,
		SttStream:        queue.Chunks(runCtx),
		DeviceID:         s.device.ID(),
		VolumeMultiplier: s.device.VolumeMultiplier(),
		TtsAudioOutput:   "wav",
		WakeWordTimeout:  pipeline.NoWakeWordTimeout,
		Sink: pipeline.SinkFunc(func(event events.Event) {
			s.handleEvent(runCtx, event)
		}),
	}
	return s.runner.Run(runCtx, input)
}

func (s *Satellite) handleEvent(ctx context.Context, event events.Event) {
	if s.extraSink != nil {
		s.extraSink.Handle(event)
	}

	switch e := event.(type) {
	case events.TtsEnded:
		media, err := satellite.FetchMedia(ctx, e.URL)
		if err != nil {
			logger.Warn("failed to fetch synthesized audio", "url", e.URL, "error", err)
			return
		}
		if err := s.client.Play(satellite.PCMFromWAV(media)); err != nil {
			logger.Warn("failed to play synthesized audio", "error", err)
		}
	case events.Error:
		s.client.ClearPlayback()
	}
}
