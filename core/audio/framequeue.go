package audio

import (
	"context"
	"iter"
	"sync"
)

// FrameQueue decouples a wire-protocol audio producer from the pipeline's
// stage consumer. The producer side never blocks; if the consumer falls
// behind, memory grows. Exactly one producer and one consumer per queue.
type FrameQueue struct {
	mu sync.Mutex

	chunks   []Chunk
	playhead int
	closed   bool

	updateSignal chan struct{}
}

func NewFrameQueue() *FrameQueue {
	return &FrameQueue{updateSignal: make(chan struct{}, 1)}
}

// Push enqueues a chunk. A nil audio payload is the end-of-stream sentinel
// and is equivalent to Close. Pushing after Close is a no-op.
func (q *FrameQueue) Push(chunk Chunk) {
	if chunk.Audio == nil {
		q.Close()
		return
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.chunks = append(q.chunks, chunk)
	q.mu.Unlock()
	q.signalUpdate()
}

// Close marks the end of the stream. Chunks already enqueued are still
// delivered; the consumer's iterator terminates once they are drained.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.signalUpdate()
}

// Len reports the number of chunks enqueued but not yet consumed.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.chunks) - q.playhead
}

// Chunks yields enqueued chunks in strict arrival order until the stream is
// closed and drained. Cancelling ctx abandons the stream immediately; chunks
// not yet yielded are discarded, never re-delivered.
func (q *FrameQueue) Chunks(ctx context.Context) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		for {
			chunk, ok, done := q.consumeNext()
			if done {
				return
			}
			if ok {
				if ctx.Err() != nil {
					return
				}
				if !yield(chunk) {
					return
				}
				continue
			}

			select {
			case <-ctx.Done():
				return
			case <-q.updateSignal:
			}
		}
	}
}

func (q *FrameQueue) consumeNext() (chunk Chunk, ok bool, done bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.playhead < len(q.chunks) {
		chunk = q.chunks[q.playhead]
		q.playhead++
		return chunk, true, false
	}

	return Chunk{}, false, q.closed
}

func (q *FrameQueue) signalUpdate() {
	select {
	case q.updateSignal <- struct{}{}:
	default:
	}
}
