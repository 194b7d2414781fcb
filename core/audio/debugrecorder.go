package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const debugRecorderQueueSize = 512

// DebugRecorder captures wake/stt audio of a pipeline run into WAV files
// under a per-run directory. Writes happen on a background goroutine fed by
// a non-blocking queue so recording never stalls the audio path; chunks are
// dropped with a warning if the writer cannot keep up.
type DebugRecorder struct {
	dir      string
	messages chan debugRecordMessage

	closeOnce sync.Once
	done      chan struct{}
}

type debugRecordMessage struct {
	// name starts a new WAV file when non-empty, otherwise audio is
	// appended to the current one.
	name  string
	audio []byte
}

// NewDebugRecorder starts a recorder writing under dir, creating it as
// needed.
func NewDebugRecorder(dir string) *DebugRecorder {
	recorder := &DebugRecorder{
		dir:      dir,
		messages: make(chan debugRecordMessage, debugRecorderQueueSize),
		done:     make(chan struct{}),
	}
	go recorder.process()
	return recorder
}

// BeginFile closes the current WAV file (if any) and starts a new one named
// <name>.wav.
func (r *DebugRecorder) BeginFile(name string) {
	r.enqueue(debugRecordMessage{name: name})
}

// WriteChunk appends 16-bit mono PCM samples to the current file.
func (r *DebugRecorder) WriteChunk(audio []byte) {
	if len(audio) == 0 {
		return
	}
	r.enqueue(debugRecordMessage{audio: audio})
}

// Close flushes and closes the current file and stops the recorder.
func (r *DebugRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.messages)
		<-r.done
	})
}

func (r *DebugRecorder) enqueue(message debugRecordMessage) {
	defer func() {
		// Sending on the closed queue after Close is a caller mistake we
		// tolerate instead of crashing the audio path.
		if recovered := recover(); recovered != nil {
			logger.Warn("debug recording after close dropped")
		}
	}()

	select {
	case r.messages <- message:
	default:
		logger.Warn("debug recording queue full, dropping audio chunk")
	}
}

func (r *DebugRecorder) process() {
	defer close(r.done)

	var file *os.File
	var encoder *wav.Encoder
	closeCurrent := func() {
		if encoder != nil {
			if err := encoder.Close(); err != nil {
				logger.Warn("failed to finalize debug WAV file", "error", err)
			}
			encoder = nil
		}
		if file != nil {
			_ = file.Close()
			file = nil
		}
	}
	defer closeCurrent()

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		logger.Warn("failed to create debug recording directory", "error", err)
		for range r.messages {
		}
		return
	}

	for message := range r.messages {
		if message.name != "" {
			closeCurrent()

			path := filepath.Join(r.dir, message.name+".wav")
			var err error
			if file, err = os.Create(path); err != nil {
				logger.Warn("failed to create debug WAV file", "error", fmt.Errorf("create %s: %w", path, err))
				continue
			}
			encoder = wav.NewEncoder(file, DefaultSampleRate, 16, SampleChannels, 1)
			continue
		}

		if encoder == nil {
			continue
		}

		samples := bytesToSamples(message.audio)
		buffer := &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: SampleChannels, SampleRate: DefaultSampleRate},
			SourceBitDepth: 16,
			Data:           make([]int, len(samples)),
		}
		for i, sample := range samples {
			buffer.Data[i] = int(sample)
		}
		if err := encoder.Write(buffer); err != nil {
			logger.Warn("failed to write debug WAV chunk", "error", err)
		}
	}
}
