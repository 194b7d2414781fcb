package wyoming

import (
	"context"
	"net"
	"testing"
	"time"

	pipeline "github.com/krelja/assist-core/core"
	"github.com/krelja/assist-core/core/satellite"
)

func newTestBridge(t *testing.T) *Bridge {
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
	device := satellite.NewDevice("dev-1", "Kitchen Satellite")
	return NewBridge("unused:10700", runner, device)
}

func serveOnPipe(t *testing.T, bridge *Bridge) (*Client, func()) {
	t.Helper()
	serverConn, clientConn := net.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bridge.Serve(ctx, NewClient(serverConn))
	}()

	return NewClient(clientConn), func() {
		_ = clientConn.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("serve loop did not stop")
		}
	}
}

func TestServe_AnswersDescribeWithSatelliteInfo(t *testing.T) {
	client, stop := serveOnPipe(t, newTestBridge(t))
	defer stop()

	if err := client.Write(Message{Type: TypeDescribe}); err != nil {
		t.Fatalf("failed to send describe: %v", err)
	}
	reply, err := client.Read()
	if err != nil {
		t.Fatalf("failed to read info: %v", err)
	}
	if reply.Type != TypeInfo {
		t.Fatalf("expected %s, got %s", TypeInfo, reply.Type)
	}

	var info InfoData
	if err := reply.DecodeData(&info); err != nil {
		t.Fatalf("failed to decode info: %v", err)
	}
	if info.Satellite == nil || info.Satellite.Name != "Kitchen Satellite" {
		t.Fatalf("unexpected satellite info: %+v", info.Satellite)
	}
}

func TestServe_AnswersPingWithPong(t *testing.T) {
	client, stop := serveOnPipe(t, newTestBridge(t))
	defer stop()

	if err := client.Write(Message{Type: TypePing}); err != nil {
		t.Fatalf("failed to send ping: %v", err)
	}
	reply, err := client.Read()
	if err != nil {
		t.Fatalf("failed to read pong: %v", err)
	}
	if reply.Type != TypePong {
		t.Fatalf("expected %s, got %s", TypePong, reply.Type)
	}
}

func TestServe_RejectsUnknownStageAndStaysUp(t *testing.T) {
	client, stop := serveOnPipe(t, newTestBridge(t))
	defer stop()

	request, err := NewMessage(TypeRunPipeline, RunPipelineData{StartStage: "bogus", EndStage: StageTts})
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if err := client.Write(request); err != nil {
		t.Fatalf("failed to send run-pipeline: %v", err)
	}

	reply, err := client.Read()
	if err != nil {
		t.Fatalf("failed to read error reply: %v", err)
	}
	if reply.Type != TypeError {
		t.Fatalf("expected %s, got %s", TypeError, reply.Type)
	}

	// The connection survives a rejected run request.
	if err := client.Write(Message{Type: TypePing}); err != nil {
		t.Fatalf("failed to send ping after rejection: %v", err)
	}
	if reply, err = client.Read(); err != nil || reply.Type != TypePong {
		t.Fatalf("connection did not survive the rejection: %+v, %v", reply, err)
	}
}

func TestServe_IgnoresUnsupportedMessages(t *testing.T) {
	client, stop := serveOnPipe(t, newTestBridge(t))
	defer stop()

	if err := client.Write(Message{Type: "played"}); err != nil {
		t.Fatalf("failed to send unsupported message: %v", err)
	}
	if err := client.Write(Message{Type: TypePing}); err != nil {
		t.Fatalf("failed to send ping: %v", err)
	}
	reply, err := client.Read()
	if err != nil || reply.Type != TypePong {
		t.Fatalf("unsupported message broke the loop: %+v, %v", reply, err)
	}
}
