// Package local runs the pipeline against the machine's own microphone and
// speaker, a satellite without a network protocol. Useful for development
// and as a reference bridge implementation.
package local

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/krelja/assist-core/core/audio"
)

// Client owns the audio hardware: one capture device feeding a callback and
// one playback device draining a buffer. Both run at the pipeline's native
// 16kHz 16-bit mono format so no resampling happens on the hot path.
type Client struct {
	audioContext *malgo.AllocatedContext

	captureMu     sync.Mutex
	captureDevice *malgo.Device
	onAudio       func(pcm []byte)

	playbackMu     sync.Mutex
	playbackDevice *malgo.Device
	pending        []byte
}

func NewClient() (*Client, error) {
	audioContext, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := &Client{audioContext: audioContext}
	if err := client.initCapture(); err != nil {
		client.Close()
		return nil, err
	}
	if err := client.initPlayback(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (c *Client) initCapture() error {
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * audio.SampleChannels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = uint32(audio.DefaultSampleRate)
	config.Capture.Format = format
	config.Capture.Channels = uint32(audio.SampleChannels)
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = uint32(audio.SamplesPerChunk)
	config.Periods = 3

	device, err := malgo.InitDevice(c.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if n == 0 || len(input) < n {
				return
			}
			c.captureMu.Lock()
			onAudio := c.onAudio
			c.captureMu.Unlock()
			if onAudio != nil {
				onAudio(input[:n])
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}
	c.captureDevice = device
	return nil
}

func (c *Client) initPlayback() error {
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * audio.SampleChannels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(audio.DefaultSampleRate)
	config.Playback.Format = format
	config.Playback.Channels = uint32(audio.SampleChannels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = uint32(audio.DefaultSampleRate / 10)
	config.Periods = 4

	device, err := malgo.InitDevice(c.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			need := int(frameCount) * bytesPerFrame
			c.playbackMu.Lock()
			defer c.playbackMu.Unlock()
			if len(c.pending) == 0 {
				return
			}
			n := copy(output, c.pending[:min(need, len(c.pending))])
			c.pending = c.pending[n:]
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	c.playbackDevice = device
	return nil
}

// StartCapture begins delivering microphone PCM to the callback.
func (c *Client) StartCapture(onAudio func(pcm []byte)) error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	if c.captureDevice == nil {
		return fmt.Errorf("capture device not initialized")
	}
	c.onAudio = onAudio
	if c.captureDevice.IsStarted() {
		return nil
	}
	if err := c.captureDevice.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (c *Client) StopCapture() error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	if c.captureDevice == nil || !c.captureDevice.IsStarted() {
		return nil
	}
	c.onAudio = nil
	if err := c.captureDevice.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	return nil
}

// Play queues PCM for the speaker.
func (c *Client) Play(pcm []byte) error {
	c.playbackMu.Lock()
	defer c.playbackMu.Unlock()
	if c.playbackDevice == nil {
		return fmt.Errorf("playback device not initialized")
	}
	if !c.playbackDevice.IsStarted() {
		if err := c.playbackDevice.Start(); err != nil {
			return fmt.Errorf("failed to start playback device: %w", err)
		}
	}
	c.pending = append(c.pending, pcm...)
	return nil
}

// ClearPlayback drops queued speaker audio, e.g. when a run is aborted
// mid-response.
func (c *Client) ClearPlayback() {
	c.playbackMu.Lock()
	defer c.playbackMu.Unlock()
	c.pending = nil
}

func (c *Client) Close() {
	c.captureMu.Lock()
	if c.captureDevice != nil {
		c.captureDevice.Uninit()
		c.captureDevice = nil
	}
	c.onAudio = nil
	c.captureMu.Unlock()

	c.playbackMu.Lock()
	if c.playbackDevice != nil {
		c.playbackDevice.Uninit()
		c.playbackDevice = nil
	}
	c.pending = nil
	c.playbackMu.Unlock()

	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}
