package contract

import (
	"context"
	"reflect"

	"github.com/henriquezago/poker-planning-be/domain"
	"github.com/henriquezago/poker-planning-be/domain/event"
)

// SessionRepository is the persistence gateway: CRUD over session documents
// plus field-scoped mutations on nested participants. Implementations must
// make AppendParticipant and SetEstimate atomic so concurrent callers never
// lose writes.
type SessionRepository interface {
	Save(ctx context.Context, session domain.Session) error
	FindByID(ctx context.Context, sessionID string) (domain.Session, error)
	AppendParticipant(ctx context.Context, sessionID string, participant domain.Participant) (domain.Session, error)
	SetEstimate(ctx context.Context, sessionID, participantID string, estimate float64) (domain.Session, bool, error)
	SetFinalEstimate(ctx context.Context, sessionID, participantID string, estimate float64) (domain.Session, bool, error)
}

// Publisher hands a session update to the broadcast channel.
// Fire-and-forget: it never blocks the calling operation.
type Publisher interface {
	Publish(e event.SessionUpdated)
}

// EventSink is one connected listener. Consume must not block beyond the
// context deadline; a slow sink loses the event, not the fanout.
type EventSink interface {
	Consume(ctx context.Context, e event.SessionEvent) error
}

// Registry maps session identifiers to the sinks interested in them.
type Registry interface {
	Subscribe(subscriberID, sessionID string, sink EventSink)
	Unsubscribe(subscriberID, sessionID string)
	SinksFor(sessionID string) []EventSink
}

type WorkerName string

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

type Supervisor interface {
	Add(worker ...Worker) Supervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
