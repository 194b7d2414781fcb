package audio

import (
	"context"
	"testing"
	"time"
)

func TestFrameQueue_YieldsChunksInArrivalOrder(t *testing.T) {
	queue := NewFrameQueue()
	queue.Push(Chunk{Audio: []byte{1}, TimestampMS: 0})
	queue.Push(Chunk{Audio: []byte{2}, TimestampMS: 10})
	queue.Push(Chunk{Audio: []byte{3}, TimestampMS: 20})
	queue.Close()

	var got []byte
	for chunk := range queue.Chunks(context.Background()) {
		got = append(got, chunk.Audio[0])
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	for i, b := range []byte{1, 2, 3} {
		if got[i] != b {
			t.Fatalf("chunk %d out of order: got %d, expected %d", i, got[i], b)
		}
	}
}

func TestFrameQueue_NilAudioActsAsSentinel(t *testing.T) {
	queue := NewFrameQueue()
	queue.Push(Chunk{Audio: []byte{1}})
	queue.Push(Chunk{Audio: nil})

	count := 0
	for range queue.Chunks(context.Background()) {
		count++
	}
	if count != 1 {
		t.Fatalf("expected sentinel not to be yielded, got %d chunks", count)
	}
}

func TestFrameQueue_PushAfterCloseIsDropped(t *testing.T) {
	queue := NewFrameQueue()
	queue.Close()
	queue.Push(Chunk{Audio: []byte{1}})

	if queue.Len() != 0 {
		t.Fatalf("expected no chunks after close, got %d", queue.Len())
	}
}

func TestFrameQueue_CancelDiscardsUndeliveredChunks(t *testing.T) {
	queue := NewFrameQueue()
	queue.Push(Chunk{Audio: []byte{1}})
	queue.Push(Chunk{Audio: []byte{2}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var got []byte
	for chunk := range queue.Chunks(ctx) {
		got = append(got, chunk.Audio[0])
		cancel()
	}
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected only the first chunk before cancel, got %v", got)
	}

	// The abandoned chunk must not reappear on a fresh consumer.
	queue.Push(Chunk{Audio: []byte{3}})
	queue.Close()
	got = nil
	for chunk := range queue.Chunks(context.Background()) {
		got = append(got, chunk.Audio[0])
	}
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("expected only the fresh chunk, got %v", got)
	}
}

func TestFrameQueue_ConsumerWaitsForProducer(t *testing.T) {
	queue := NewFrameQueue()

	go func() {
		time.Sleep(20 * time.Millisecond)
		queue.Push(Chunk{Audio: []byte{7}})
		queue.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var got []byte
	for chunk := range queue.Chunks(ctx) {
		got = append(got, chunk.Audio[0])
	}
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected the late chunk to be delivered, got %v", got)
	}
}
