// Package wyoming bridges Wyoming-protocol voice satellites onto the
// pipeline runner. Wyoming frames every message as a JSON header line,
// newline terminated, optionally followed by a binary payload of the length
// announced in the header.
package wyoming

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Message type names of the protocol subset the bridge speaks.
const (
	TypeDescribe       = "describe"
	TypeInfo           = "info"
	TypeRunPipeline    = "run-pipeline"
	TypeRunSatellite   = "run-satellite"
	TypePauseSatellite = "pause-satellite"
	TypeAudioStart     = "audio-start"
	TypeAudioChunk     = "audio-chunk"
	TypeAudioStop      = "audio-stop"
	TypeDetect         = "detect"
	TypeDetection      = "detection"
	TypeTranscribe     = "transcribe"
	TypeTranscript     = "transcript"
	TypeVoiceStarted   = "voice-started"
	TypeVoiceStopped   = "voice-stopped"
	TypeSynthesize     = "synthesize"
	TypeError          = "error"
	TypePing           = "ping"
	TypePong           = "pong"
)

// maxPayloadLength guards against a corrupt header allocating gigabytes.
const maxPayloadLength = 1 << 22

type Message struct {
	Type          string          `json:"type"`
	Data          json.RawMessage `json:"data,omitempty"`
	PayloadLength int             `json:"payload_length,omitempty"`

	Payload []byte `json:"-"`
}

// NewMessage builds a message with its data marshalled into the header.
func NewMessage(messageType string, data any) (Message, error) {
	message := Message{Type: messageType}
	if data == nil {
		return message, nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode %s data: %w", messageType, err)
	}
	message.Data = encoded
	return message, nil
}

// DecodeData unmarshals the header data into v.
func (m Message) DecodeData(v any) error {
	if len(m.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", m.Type, err)
	}
	return nil
}

// WriteMessage frames and writes one message, flushing the writer.
func WriteMessage(w *bufio.Writer, message Message) error {
	message.PayloadLength = len(message.Payload)
	header, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode message header: %w", err)
	}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write message header: %w", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write message header: %w", err)
	}
	if len(message.Payload) > 0 {
		if _, err := w.Write(message.Payload); err != nil {
			return fmt.Errorf("failed to write message payload: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush message: %w", err)
	}
	return nil
}

// ReadMessage reads one framed message, including its payload if announced.
func ReadMessage(r *bufio.Reader) (Message, error) {
	header, err := r.ReadBytes('\n')
	if err != nil {
		return Message{}, fmt.Errorf("failed to read message header: %w", err)
	}

	var message Message
	if err := json.Unmarshal(header, &message); err != nil {
		return Message{}, fmt.Errorf("failed to decode message header: %w", err)
	}
	if message.PayloadLength < 0 || message.PayloadLength > maxPayloadLength {
		return Message{}, fmt.Errorf("invalid payload length %d", message.PayloadLength)
	}
	if message.PayloadLength > 0 {
		message.Payload = make([]byte, message.PayloadLength)
		if _, err := io.ReadFull(r, message.Payload); err != nil {
			return Message{}, fmt.Errorf("failed to read message payload: %w", err)
		}
	}
	return message, nil
}

// RunPipelineData asks the server to run a stage range on the satellite's
// behalf. Stage names use the protocol's vocabulary, see PipelineStage.
type RunPipelineData struct {
	StartStage   string `json:"start_stage"`
	EndStage     string `json:"end_stage"`
	RestartOnEnd bool   `json:"restart_on_end,omitempty"`
}

// AudioFormatData describes the PCM stream of audio-start and audio-chunk
// messages.
type AudioFormatData struct {
	Rate      int `json:"rate"`
	Width     int `json:"width"`
	Channels  int `json:"channels"`
	Timestamp int `json:"timestamp,omitempty"`
}

type DetectionData struct {
	Name      string `json:"name,omitempty"`
	Timestamp int    `json:"timestamp,omitempty"`
}

type TranscribeData struct {
	Language string `json:"language,omitempty"`
}

type TranscriptData struct {
	Text string `json:"text"`
}

type TimestampData struct {
	Timestamp int `json:"timestamp,omitempty"`
}

type SynthesizeVoice struct {
	Name string `json:"name,omitempty"`
}

type SynthesizeData struct {
	Text  string           `json:"text"`
	Voice *SynthesizeVoice `json:"voice,omitempty"`
}

type ErrorData struct {
	Code string `json:"code,omitempty"`
	Text string `json:"text"`
}

// InfoData is the answer to describe. Only the satellite section is
// populated by this bridge.
type InfoData struct {
	Satellite *SatelliteInfo `json:"satellite,omitempty"`
}

type SatelliteInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Attribution string `json:"attribution,omitempty"`
	Installed   bool   `json:"installed"`
}
