package esphome

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/krelja/assist-core/core/audio"
)

func TestAudioServer_DeliversDatagramsAsChunks(t *testing.T) {
	queue := audio.NewFrameQueue()
	server, err := StartAudioServer(queue)
	if err != nil {
		t.Fatalf("failed to start audio server: %v", err)
	}
	defer func() { _ = server.Close() }()

	if server.Port() == 0 {
		t.Fatalf("expected an ephemeral port to be assigned")
	}

	conn, err := net.Dial("udp", fmt.Sprintf("127.0.0.1:%d", server.Port()))
	if err != nil {
		t.Fatalf("failed to dial audio server: %v", err)
	}
	defer func() { _ = conn.Close() }()

	payload := bytes.Repeat([]byte{0x7f, 0x01}, 240)
	if _, err := conn.Write(payload); err != nil {
		t.Fatalf("failed to send datagram: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for chunk := range queue.Chunks(ctx) {
		if !bytes.Equal(chunk.Audio, payload) {
			t.Fatalf("datagram mangled: %d bytes", len(chunk.Audio))
		}
		return
	}
	t.Fatalf("no chunk delivered before the deadline")
}

func TestAudioServer_CloseEndsTheStream(t *testing.T) {
	queue := audio.NewFrameQueue()
	server, err := StartAudioServer(queue)
	if err != nil {
		t.Fatalf("failed to start audio server: %v", err)
	}
	if err := server.Close(); err != nil {
		t.Fatalf("failed to close audio server: %v", err)
	}

	count := 0
	for range queue.Chunks(context.Background()) {
		count++
	}
	if count != 0 {
		t.Fatalf("expected an empty closed stream, got %d chunks", count)
	}
}
