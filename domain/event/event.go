package event

import "github.com/henriquezago/poker-planning-be/domain"

// SessionEvent is anything routable to the subscribers of one session.
type SessionEvent interface {
	SessionID() string
}

// SessionUpdated carries the full fresh session state after a mutation.
// Delivery is best-effort and at-most-once; subscribers that connect after
// the publish never see it.
type SessionUpdated struct {
	Session domain.Session
}

func (e SessionUpdated) SessionID() string {
	return e.Session.ID
}
