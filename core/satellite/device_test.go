package satellite

import (
	"testing"

	"github.com/krelja/assist-core/core/wakeword"
)

func TestDevice_Defaults(t *testing.T) {
	device := NewDevice("dev-1", "Kitchen")

	if device.ID() != "dev-1" || device.Name() != "Kitchen" {
		t.Fatalf("identity mangled: %s %s", device.ID(), device.Name())
	}
	if device.PipelineID() != "" {
		t.Fatalf("expected the preferred pipeline by default, got %q", device.PipelineID())
	}
	if device.Muted() {
		t.Fatalf("expected the device to start unmuted")
	}
	if device.VolumeMultiplier() != 1.0 {
		t.Fatalf("expected a neutral volume multiplier, got %f", device.VolumeMultiplier())
	}
}

func TestDevice_Options(t *testing.T) {
	device := NewDevice("dev-1", "Kitchen",
		WithPipeline("p-2"),
		WithVolumeMultiplier(1.5),
		WithAvailableWakeWords(wakeword.WakeWord{ID: "ok_home", Phrase: "ok home"}),
	)

	if device.PipelineID() != "p-2" {
		t.Fatalf("pipeline option not applied: %q", device.PipelineID())
	}
	if device.VolumeMultiplier() != 1.5 {
		t.Fatalf("volume option not applied: %f", device.VolumeMultiplier())
	}
	available := device.AvailableWakeWords()
	if len(available) != 1 || available[0].ID != "ok_home" {
		t.Fatalf("wake word option not applied: %v", available)
	}
}

func TestDevice_VolumeMultiplierClampsNegatives(t *testing.T) {
	device := NewDevice("dev-1", "Kitchen")
	device.SetVolumeMultiplier(-2)

	if device.VolumeMultiplier() != 0 {
		t.Fatalf("expected the multiplier to clamp at zero, got %f", device.VolumeMultiplier())
	}
}

func TestDevice_ActiveWakeWordsAreCopied(t *testing.T) {
	device := NewDevice("dev-1", "Kitchen")
	ids := []string{"ok_home"}
	device.SetActiveWakeWords(ids)
	ids[0] = "mutated"

	if active := device.ActiveWakeWords(); active[0] != "ok_home" {
		t.Fatalf("caller mutation leaked into the device: %v", active)
	}
}
