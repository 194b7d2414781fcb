package pipeline

import (
	"sync"

	"github.com/krelja/assist-core/core/events"
	"github.com/krelja/assist-core/internal/metrics"
)

// Sink receives every event a run emits, in order, from the run's own
// goroutine. Handle must not block; a slow sink stalls the pipeline.
type Sink interface {
	Handle(event events.Event)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(event events.Event)

func (f SinkFunc) Handle(event events.Event) { f(event) }

// ChannelSink forwards events onto a buffered channel without ever blocking
// the run. Events that do not fit are dropped and counted; consumers that
// care about completeness must size the buffer for their read cadence.
type ChannelSink struct {
	events  chan events.Event
	metrics *metrics.Recorder

	mu      sync.Mutex
	dropped int
}

type ChannelSinkOption func(*ChannelSink)

// WithSinkMetrics reports dropped events to the Prometheus recorder.
func WithSinkMetrics(recorder *metrics.Recorder) ChannelSinkOption {
	return func(s *ChannelSink) {
		s.metrics = recorder
	}
}

func NewChannelSink(buffer int, opts ...ChannelSinkOption) *ChannelSink {
	sink := &ChannelSink{events: make(chan events.Event, buffer)}
	for _, opt := range opts {
		opt(sink)
	}
	return sink
}

func (s *ChannelSink) Handle(event events.Event) {
	select {
	case s.events <- event:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		s.metrics.EventDropped()
		logger.Warn("event sink full, dropping event", "kind", string(event.Kind()))
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan events.Event { return s.events }

// Dropped returns how many events were discarded because the buffer was full.
func (s *ChannelSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
