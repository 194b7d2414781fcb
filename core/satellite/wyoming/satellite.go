package wyoming

import (
	"context"
	"errors"
	"time"

	pipeline "github.com/krelja/assist-core/core"
	"github.com/krelja/assist-core/core/audio"
	"github.com/krelja/assist-core/core/events"
	"github.com/krelja/assist-core/core/satellite"
	"github.com/krelja/assist-core/internal/metrics"
)

// responseChunkBytes is 100ms of response audio per network frame.
const responseChunkBytes = 10 * audio.BytesPerChunk

const defaultReconnectInterval = 10 * time.Second

// Bridge keeps one Wyoming satellite connected to the pipeline runner. It
// dials the satellite, serves its message stream, and reconnects at a fixed
// interval when the connection drops.
type Bridge struct {
	address string
	runner  *pipeline.Runner
	device  *satellite.Device

	reconnectInterval time.Duration
	metrics           *metrics.Recorder
}

type BridgeOption func(*Bridge)

func WithReconnectInterval(interval time.Duration) BridgeOption {
	return func(b *Bridge) {
		b.reconnectInterval = interval
	}
}

func WithMetrics(recorder *metrics.Recorder) BridgeOption {
	return func(b *Bridge) {
		b.metrics = recorder
	}
}

func NewBridge(address string, runner *pipeline.Runner, device *satellite.Device, opts ...BridgeOption) *Bridge {
	bridge := &Bridge{
		address:           address,
		runner:            runner,
		device:            device,
		reconnectInterval: defaultReconnectInterval,
	}
	for _, opt := range opts {
		opt(bridge)
	}
	return bridge
}

// Run connects and serves until ctx is cancelled, redialing after every
// connection loss.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		client, err := DialClient(ctx, b.address)
		if err == nil {
			err = b.Serve(ctx, client)
			_ = client.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Warn("satellite connection lost, reconnecting",
			"address", b.address,
			"interval", b.reconnectInterval,
			"error", err,
		)
		b.metrics.SatelliteReconnect("wyoming")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.reconnectInterval):
		}
	}
}

// Serve handles one connection's message stream until it fails or ctx is
// cancelled. At most one pipeline run is active per connection; a new
// run-pipeline aborts the previous run.
func (b *Bridge) Serve(ctx context.Context, client *Client) error {
	ctx, span := tracer.Start(ctx, "wyoming.serve")
	defer span.End()

	var current *activeRun
	defer func() {
		if current != nil {
			current.abort()
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		message, err := client.Read()
		if err != nil {
			return err
		}

		switch message.Type {
		case TypeDescribe:
			if err := client.WriteEvent(TypeInfo, b.info()); err != nil {
				return err
			}
		case TypePing:
			if err := client.Write(Message{Type: TypePong}); err != nil {
				return err
			}
		case TypeRunPipeline, TypeRunSatellite:
			if current != nil {
				current.abort()
			}
			run, err := b.startRun(ctx, client, message)
			if err != nil {
				logger.Warn("rejecting pipeline run request", "error", err)
				if writeErr := client.WriteEvent(TypeError, ErrorData{Text: err.Error()}); writeErr != nil {
					return writeErr
				}
				continue
			}
			current = run
		case TypeAudioStart:
			if current != nil {
				current.audioStarted(message)
			}
		case TypeAudioChunk:
			if current != nil && !b.device.Muted() {
				current.pushAudio(message)
			}
		case TypeAudioStop:
			// Stop semantics: the stream is complete, queued audio is
			// still consumed.
			if current != nil {
				current.queue.Close()
			}
		case TypePauseSatellite:
			// Abort semantics: queued audio is discarded.
			if current != nil {
				current.abort()
				current = nil
			}
		default:
			logger.Debug("ignoring unsupported message", "type", message.Type)
		}
	}
}

func (b *Bridge) info() InfoData {
	return InfoData{Satellite: &SatelliteInfo{
		Name:        b.device.Name(),
		Description: "assist-core pipeline bridge",
		Installed:   true,
	}}
}

// activeRun is the connection-side state of one pipeline run: the frame
// queue fed from audio-chunk messages and the cancel handle that aborts the
// run.
type activeRun struct {
	queue  *audio.FrameQueue
	cancel context.CancelFunc
	done   chan struct{}

	resampler   *audio.Resampler
	format      audio.EncodingInfo
	timestampMS int
}

func (r *activeRun) audioStarted(message Message) {
	var format AudioFormatData
	if err := message.DecodeData(&format); err != nil {
		logger.Warn("ignoring malformed audio-start", "error", err)
		return
	}
	r.format = audio.EncodingInfo{
		SampleRate: format.Rate,
		Channels:   format.Channels,
		Format:     audio.EncodingLinear16,
	}
	if format.Rate != 0 && format.Rate != audio.DefaultSampleRate {
		r.resampler = audio.NewResampler(format.Rate, audio.DefaultSampleRate)
	}
}

func (r *activeRun) pushAudio(message Message) {
	data := message.Payload
	if r.resampler != nil {
		data = r.resampler.Resample(data)
	}
	if len(data) == 0 {
		return
	}
	r.queue.Push(audio.Chunk{Audio: data, TimestampMS: r.timestampMS})
	r.timestampMS += int(audio.GetDefaultEncodingInfo().Duration(data).Milliseconds())
}

// abort cancels the run; chunks not yet consumed are discarded.
func (r *activeRun) abort() {
	r.cancel()
	r.queue.Close()
	<-r.done
}

func (b *Bridge) startRun(ctx context.Context, client *Client, message Message) (*activeRun, error) {
	startStage, endStage := pipeline.StageWakeWord, pipeline.StageTts
	if message.Type == TypeRunPipeline {
		var data RunPipelineData
		if err := message.DecodeData(&data); err != nil {
			return nil, err
		}
		var err error
		if startStage, err = PipelineStage(data.StartStage); err != nil {
			return nil, err
		}
		if endStage, err = PipelineStage(data.EndStage); err != nil {
			return nil, err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &activeRun{
		queue:  audio.NewFrameQueue(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	input := pipeline.Input{
		PipelineID:       b.device.PipelineID(),
		StartStage:       startStage,
		EndStage:         endStage,
		SttStream:        run.queue.Chunks(runCtx),
		DeviceID:         b.device.ID(),
		VolumeMultiplier: b.device.VolumeMultiplier(),
		TtsAudioOutput:   "wav",
		Sink: pipeline.SinkFunc(func(event events.Event) {
			b.forwardEvent(runCtx, client, event)
		}),
	}

	go func() {
		defer close(run.done)
		defer cancel()
		if err := b.runner.Run(runCtx, input); err != nil {
			var validation *pipeline.ValidationError
			if errors.As(err, &validation) {
				// Validation failures emit no events, so the satellite
				// has to be told directly.
				_ = client.WriteEvent(TypeError, ErrorData{Text: validation.Error()})
			}
			logger.Warn("pipeline run failed", "error", err)
		}
	}()
	return run, nil
}

func (b *Bridge) forwardEvent(ctx context.Context, client *Client, event events.Event) {
	var err error
	switch e := event.(type) {
	case events.WakeWordStarted:
		err = client.Write(Message{Type: TypeDetect})
	case events.WakeWordEnded:
		if e.WakeWordID == "" {
			// Stream ended without a detection; nothing to announce.
			break
		}
		err = client.WriteEvent(TypeDetection, DetectionData{Name: e.WakeWordID, Timestamp: e.TimestampMS})
	case events.SttStarted:
		err = client.WriteEvent(TypeTranscribe, TranscribeData{Language: e.Language})
	case events.SttVadStarted:
		err = client.WriteEvent(TypeVoiceStarted, TimestampData{Timestamp: e.TimestampMS})
	case events.SttVadEnded:
		err = client.WriteEvent(TypeVoiceStopped, TimestampData{Timestamp: e.TimestampMS})
	case events.SttEnded:
		err = client.WriteEvent(TypeTranscript, TranscriptData{Text: e.Text})
	case events.TtsStarted:
		data := SynthesizeData{Text: e.Text}
		if e.Voice != "" {
			data.Voice = &SynthesizeVoice{Name: e.Voice}
		}
		err = client.WriteEvent(TypeSynthesize, data)
	case events.TtsEnded:
		// Paced streaming takes real time; it must not block the run's
		// event dispatch.
		go b.streamResponse(ctx, client, e.URL)
	case events.Error:
		err = client.WriteEvent(TypeError, ErrorData{Code: e.Code, Text: e.Message})
	}
	if err != nil {
		logger.Warn("failed to forward pipeline event",
			"kind", string(event.Kind()),
			"error", err,
		)
	}
}

// streamResponse fetches the synthesized audio and plays it onto the
// connection at real-time rate, framed as audio-start/chunk/stop.
func (b *Bridge) streamResponse(ctx context.Context, client *Client, url string) {
	media, err := satellite.FetchMedia(ctx, url)
	if err != nil {
		logger.Warn("failed to fetch synthesized audio", "url", url, "error", err)
		return
	}
	pcm := satellite.PCMFromWAV(media)

	info := audio.GetDefaultEncodingInfo()
	format := AudioFormatData{Rate: info.SampleRate, Width: audio.SampleWidth, Channels: info.Channels}
	if err := client.WriteEvent(TypeAudioStart, format); err != nil {
		logger.Warn("failed to start response audio", "error", err)
		return
	}

	err = satellite.StreamPaced(ctx, info, satellite.ChunkAudio(pcm, responseChunkBytes), func(chunk audio.Chunk) error {
		format.Timestamp = chunk.TimestampMS
		message, err := NewMessage(TypeAudioChunk, format)
		if err != nil {
			return err
		}
		message.Payload = chunk.Audio
		return client.Write(message)
	})
	if err != nil && ctx.Err() == nil {
		logger.Warn("failed to stream response audio", "error", err)
	}

	if err := client.WriteEvent(TypeAudioStop, TimestampData{}); err != nil {
		logger.Warn("failed to stop response audio", "error", err)
	}
}
