package satellite

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/krelja/assist-core/core/audio"
)

func websocketAudioServer(t *testing.T, frames [][]byte) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer func() { _ = conn.Close() }()
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		}
		// Empty binary frame marks end of stream.
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{})
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebsocketSource_StreamsFramesWithTimestamps(t *testing.T) {
	frames := [][]byte{
		make([]byte, audio.BytesPerChunk),
		make([]byte, audio.BytesPerChunk),
		make([]byte, audio.BytesPerChunk),
	}
	url := websocketAudioServer(t, frames)

	source, err := DialWebsocketSource(context.Background(), url)
	if err != nil {
		t.Fatalf("failed to dial source: %v", err)
	}
	defer func() { _ = source.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var timestamps []int
	for chunk := range source.Chunks(ctx) {
		if len(chunk.Audio) != audio.BytesPerChunk {
			t.Fatalf("frame mangled: %d bytes", len(chunk.Audio))
		}
		timestamps = append(timestamps, chunk.TimestampMS)
	}
	if ctx.Err() != nil {
		t.Fatalf("stream did not terminate on the end-of-stream marker")
	}

	if len(timestamps) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(timestamps))
	}
	for i, want := range []int{0, audio.MSPerChunk, 2 * audio.MSPerChunk} {
		if timestamps[i] != want {
			t.Fatalf("chunk %d timestamp %d, expected %d", i, timestamps[i], want)
		}
	}
}

func TestWebsocketSource_PeerDisconnectClosesStream(t *testing.T) {
	url := websocketAudioServer(t, nil)

	source, err := DialWebsocketSource(context.Background(), url)
	if err != nil {
		t.Fatalf("failed to dial source: %v", err)
	}
	defer func() { _ = source.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for range source.Chunks(ctx) {
	}
	if ctx.Err() != nil {
		t.Fatalf("iterator did not terminate after the peer disconnected")
	}
}
