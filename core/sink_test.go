package pipeline

import (
	"testing"

	"github.com/krelja/assist-core/core/events"
)

func TestChannelSink_DeliversInOrder(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Handle(events.NewRunStarted("p1", "en", nil))
	sink.Handle(events.NewRunEnded())

	first := <-sink.Events()
	second := <-sink.Events()
	if first.Kind() != events.KindRunStart || second.Kind() != events.KindRunEnd {
		t.Fatalf("events out of order: %s, %s", first.Kind(), second.Kind())
	}
	if sink.Dropped() != 0 {
		t.Fatalf("expected no drops, got %d", sink.Dropped())
	}
}

func TestChannelSink_DropsInsteadOfBlocking(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Handle(events.NewRunStarted("p1", "en", nil))
	sink.Handle(events.NewRunEnded())
	sink.Handle(events.NewError(CodeUnknownError, "boom"))

	if sink.Dropped() != 2 {
		t.Fatalf("expected 2 dropped events, got %d", sink.Dropped())
	}

	delivered := <-sink.Events()
	if delivered.Kind() != events.KindRunStart {
		t.Fatalf("expected the buffered event to survive, got %s", delivered.Kind())
	}
}

func TestSinkFunc(t *testing.T) {
	var got []events.Kind
	sink := SinkFunc(func(event events.Event) { got = append(got, event.Kind()) })
	sink.Handle(events.NewRunStarted("p1", "en", nil))

	if len(got) != 1 || got[0] != events.KindRunStart {
		t.Fatalf("function sink not invoked: %v", got)
	}
}
