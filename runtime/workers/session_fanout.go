package workers

import (
	"context"
	"log/slog"

	"github.com/henriquezago/poker-planning-be/contract"
	"github.com/henriquezago/poker-planning-be/domain/event"
	"github.com/henriquezago/poker-planning-be/observability"
)

// SessionFanout is the broadcast channel. It consumes published session
// updates and fans each one out to the sinks subscribed to that session,
// including the sink whose action triggered the update.
//
// Delivery is best-effort with no guarantees regarding ordering across
// subscribers, durability or retries. A full publish queue drops the event
// rather than blocking the operation that produced it. SessionFanout is not
// a message broker.
//
// SessionFanout is safe for concurrent use by multiple goroutines.
type SessionFanout struct {
	log        *slog.Logger
	registry   contract.Registry
	monitoring *observability.Monitoring
	events     chan event.SessionUpdated
}

func NewSessionFanout(log *slog.Logger, registry contract.Registry, monitoring *observability.Monitoring, bufferSize int) *SessionFanout {
	return &SessionFanout{
		log:        log,
		registry:   registry,
		monitoring: monitoring,
		events:     make(chan event.SessionUpdated, bufferSize),
	}
}

// Publish enqueues the update for fanout. Fire-and-forget: when the queue is
// full the event is lost and the caller is never blocked.
func (w *SessionFanout) Publish(e event.SessionUpdated) {
	select {
	case w.events <- e:
		w.monitoring.UpdatePublished()
	default:
		w.log.Warn("Publish queue full, session update dropped", "session_id", e.SessionID())
	}
}

func (w *SessionFanout) Run(ctx context.Context) error {
	for {
		select {
		case e := <-w.events:
			w.fanout(ctx, e)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping session fanout")
			return nil
		}
	}
}

// fanout delivers one event to every current subscriber of its session.
// A failing sink only loses its own copy.
func (w *SessionFanout) fanout(ctx context.Context, e event.SessionUpdated) {
	for _, sink := range w.registry.SinksFor(e.SessionID()) {
		if err := sink.Consume(ctx, e); err != nil {
			w.log.Debug("Sink refused session update",
				"session_id", e.SessionID(),
				"error", err)
		}
	}
}
