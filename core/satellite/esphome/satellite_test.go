package esphome

import (
	"context"
	"testing"
	"time"

	pipeline "github.com/krelja/assist-core/core"
	"github.com/krelja/assist-core/core/satellite"
)

type recordingConn struct {
	sent chan EventType
}

func (c *recordingConn) SendEvent(_ context.Context, eventType EventType, _ map[string]string) error {
	c.sent <- eventType
	return nil
}

func newTestSatellite(t *testing.T) (*Satellite, *recordingConn) {
	t.Helper()
	store, err := pipeline.NewStore(pipeline.Pipeline{
		Name:                 "Test",
		Language:             "en",
		ConversationEngine:   "agent",
		ConversationLanguage: "en",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	runner := pipeline.NewRunner(store, pipeline.NewEngineRegistry())
	device := satellite.NewDevice("esp-1", "Bedroom")
	conn := &recordingConn{sent: make(chan EventType, 16)}
	return NewSatellite(runner, device, conn), conn
}

func expectEvent(t *testing.T, conn *recordingConn, expected EventType) {
	t.Helper()
	select {
	case got := <-conn.sent:
		if got != expected {
			t.Fatalf("expected device event %d, got %d", expected, got)
		}
	case <-time.After(time.Second):
		t.Fatalf("device event %d never arrived", expected)
	}
}

func TestStartRun_ForwardsRunEventsToDevice(t *testing.T) {
	sat, conn := newTestSatellite(t)

	// The pipeline has no stt engine, so a run starting at stt emits
	// run-start and then a terminal error, both forwarded to the device.
	port, err := sat.StartRun(context.Background(), RunRequest{APIAudio: true})
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	if port != 0 {
		t.Fatalf("API audio runs must not open a UDP port, got %d", port)
	}

	expectEvent(t, conn, EventRunStart)
	expectEvent(t, conn, EventError)
}

func TestStartRun_OpensUDPPortForStreamedAudio(t *testing.T) {
	sat, conn := newTestSatellite(t)

	port, err := sat.StartRun(context.Background(), RunRequest{})
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	if port == 0 {
		t.Fatalf("expected a UDP port for streamed audio")
	}

	expectEvent(t, conn, EventRunStart)
	expectEvent(t, conn, EventError)
	sat.Abort()
}

func TestAbortWithoutRunIsANoOp(t *testing.T) {
	sat, _ := newTestSatellite(t)
	sat.Abort()
}

func TestHandleAudioBeforeRunIsDropped(t *testing.T) {
	sat, _ := newTestSatellite(t)
	sat.HandleAudio([]byte{1, 2, 3, 4})
	sat.StopAudio()
}
