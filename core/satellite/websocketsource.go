package satellite

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/gorilla/websocket"

	"github.com/krelja/assist-core/core/audio"
)

// WebsocketSource streams microphone audio from a websocket into a frame
// queue. Binary frames carry raw 16kHz 16-bit mono PCM; an empty binary
// frame is the end-of-stream marker. The queue closes when the peer
// disconnects, so a consumer's iterator always terminates.
type WebsocketSource struct {
	conn  *websocket.Conn
	queue *audio.FrameQueue
}

// DialWebsocketSource connects to a satellite's audio websocket and starts
// pumping frames.
func DialWebsocketSource(ctx context.Context, url string) (*WebsocketSource, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial audio websocket: %w", err)
	}

	source := &WebsocketSource{conn: conn, queue: audio.NewFrameQueue()}
	go source.pump()
	return source, nil
}

func (s *WebsocketSource) pump() {
	defer s.queue.Close()

	info := audio.GetDefaultEncodingInfo()
	timestampMS := 0
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("audio websocket read failed", "error", err)
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		if len(data) == 0 {
			return
		}

		s.queue.Push(audio.Chunk{Audio: data, TimestampMS: timestampMS})
		timestampMS += int(info.Duration(data).Milliseconds())
	}
}

// Chunks yields the received audio in arrival order until the stream ends or
// ctx is cancelled.
func (s *WebsocketSource) Chunks(ctx context.Context) iter.Seq[audio.Chunk] {
	return s.queue.Chunks(ctx)
}

// Close tears the connection down; the consumer's iterator drains what is
// already queued and terminates.
func (s *WebsocketSource) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}
