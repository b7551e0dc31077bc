package ws

import (
	"context"
	"errors"
	"time"

	"github.com/henriquezago/poker-planning-be/domain/event"
)

// connSink bridges the fanout worker and one WebSocket connection.
// Consume is called by the fanout; the connection's writer goroutine drains
// the channel. A sink that stays full past the delivery timeout loses the
// event instead of stalling delivery to everyone else.
type connSink struct {
	events          chan event.SessionEvent
	deliveryTimeout time.Duration
}

func newConnSink(bufferSize int, deliveryTimeout time.Duration) *connSink {
	return &connSink{
		events:          make(chan event.SessionEvent, bufferSize),
		deliveryTimeout: deliveryTimeout,
	}
}

func (s *connSink) Consume(ctx context.Context, e event.SessionEvent) error {
	select {
	case s.events <- e:
		return nil
	default:
	}

	timer := time.NewTimer(s.deliveryTimeout)
	defer timer.Stop()
	select {
	case s.events <- e:
		return nil
	case <-timer.C:
		return errors.New("subscriber backpressure, event dropped")
	case <-ctx.Done():
		return ctx.Err()
	}
}
