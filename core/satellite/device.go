// Package satellite holds what the protocol bridges share: the device model,
// real-time paced audio playback and media retrieval helpers, and a
// websocket audio source. The bridges themselves live in subpackages, one
// per protocol.
package satellite

import (
	"sync"

	"github.com/krelja/assist-core/core/wakeword"
)

// Device is the bridge-side model of one voice satellite. Settings are read
// at run start; changing them mid-run affects the next run.
type Device struct {
	id   string
	name string

	mu                 sync.Mutex
	pipelineID         string
	muted              bool
	volumeMultiplier   float64
	activeWakeWords    []string
	availableWakeWords []wakeword.WakeWord
}

type DeviceOption func(*Device)

// WithPipeline pins the device to a pipeline instead of the store's
// preferred one.
func WithPipeline(pipelineID string) DeviceOption {
	return func(d *Device) {
		d.pipelineID = pipelineID
	}
}

// WithVolumeMultiplier scales the device's microphone audio.
func WithVolumeMultiplier(multiplier float64) DeviceOption {
	return func(d *Device) {
		d.volumeMultiplier = multiplier
	}
}

// WithAvailableWakeWords declares the wake words the device can listen for.
func WithAvailableWakeWords(wakeWords ...wakeword.WakeWord) DeviceOption {
	return func(d *Device) {
		d.availableWakeWords = wakeWords
	}
}

func NewDevice(id, name string, opts ...DeviceOption) *Device {
	device := &Device{
		id:               id,
		name:             name,
		volumeMultiplier: 1.0,
	}
	for _, opt := range opts {
		opt(device)
	}
	return device
}

func (d *Device) ID() string   { return d.id }
func (d *Device) Name() string { return d.name }

func (d *Device) PipelineID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pipelineID
}

func (d *Device) SetPipelineID(pipelineID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pipelineID = pipelineID
}

// Muted reports whether the device's microphone input is ignored. A muted
// device still plays responses.
func (d *Device) Muted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.muted
}

func (d *Device) SetMuted(muted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.muted = muted
}

func (d *Device) VolumeMultiplier() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volumeMultiplier
}

func (d *Device) SetVolumeMultiplier(multiplier float64) {
	if multiplier < 0 {
		multiplier = 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volumeMultiplier = multiplier
}

// ActiveWakeWords returns the wake word ids the device currently listens
// for. Empty means all available ones.
func (d *Device) ActiveWakeWords() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	active := make([]string, len(d.activeWakeWords))
	copy(active, d.activeWakeWords)
	return active
}

func (d *Device) SetActiveWakeWords(ids []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.activeWakeWords = make([]string, len(ids))
	copy(d.activeWakeWords, ids)
}

func (d *Device) AvailableWakeWords() []wakeword.WakeWord {
	d.mu.Lock()
	defer d.mu.Unlock()
	available := make([]wakeword.WakeWord, len(d.availableWakeWords))
	copy(available, d.availableWakeWords)
	return available
}
