package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/henriquezago/poker-planning-be/domain"
	apperrors "github.com/henriquezago/poker-planning-be/errors"
)

const sessionKeyPrefix = "session:"

// SessionRepository persists session documents in BadgerDB, one JSON
// document per session under "session:{id}". The stored shape is the same
// JSON the API serves, so there is no second wire schema.
//
// Mutations run inside Badger transactions. Badger detects write conflicts
// between overlapping transactions, so a concurrent append or estimate
// update is retried instead of silently overwritten. That retry loop is the
// store-side atomic primitive the service relies on; the service itself
// never retries.
type SessionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSessionRepository(db *badger.DB, log *slog.Logger) SessionRepository {
	return SessionRepository{db: db, log: log}
}

func sessionKey(sessionID string) []byte {
	return []byte(sessionKeyPrefix + sessionID)
}

// Save upserts the full session document.
func (r SessionRepository) Save(_ context.Context, session domain.Session) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return writeSession(txn, session)
	})
	if err != nil {
		return apperrors.Persistence(err)
	}
	r.log.Debug("Session saved", "session_id", session.ID)
	return nil
}

func (r SessionRepository) FindByID(_ context.Context, sessionID string) (domain.Session, error) {
	var session domain.Session
	err := r.db.View(func(txn *badger.Txn) error {
		found, err := readSession(txn, sessionID)
		if err != nil {
			return err
		}
		session = found
		return nil
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return domain.Session{}, apperrors.NotFound("session %s", sessionID)
	case err != nil:
		return domain.Session{}, apperrors.Persistence(err)
	}
	return session, nil
}

// AppendParticipant adds the participant to the end of the session's list.
// The participant id is assigned by the caller before the transaction, so
// identifier uniqueness does not depend on the read-then-write outcome;
// the transactional retry only protects the append itself.
func (r SessionRepository) AppendParticipant(_ context.Context, sessionID string, participant domain.Participant) (domain.Session, error) {
	return r.mutate(sessionID, func(session *domain.Session) bool {
		session.Participants = append(session.Participants, participant)
		return true
	})
}

// SetEstimate updates exactly the matched participant's estimate and returns
// the fresh session state. An unknown participant id is a silent no-op: the
// unchanged session comes back with a nil error and applied false.
func (r SessionRepository) SetEstimate(_ context.Context, sessionID, participantID string, estimate float64) (domain.Session, bool, error) {
	applied := false
	session, err := r.mutate(sessionID, func(session *domain.Session) bool {
		applied = false
		for i := range session.Participants {
			if session.Participants[i].ID == participantID {
				session.Participants[i].Estimate = &estimate
				applied = true
				return true
			}
		}
		return false
	})
	return session, applied, err
}

// SetFinalEstimate records the session-level decision. The update is scoped
// by both identifiers: the named participant must belong to the session or
// nothing is written. The boolean reports whether the write happened.
func (r SessionRepository) SetFinalEstimate(_ context.Context, sessionID, participantID string, estimate float64) (domain.Session, bool, error) {
	applied := false
	session, err := r.mutate(sessionID, func(session *domain.Session) bool {
		applied = false
		if _, ok := session.Participant(participantID); !ok {
			return false
		}
		session.FinalEstimate = &estimate
		applied = true
		return true
	})
	return session, applied, err
}

// mutate runs apply under a transaction and retries on write conflict.
// apply reports whether the document changed; unchanged documents are not
// rewritten.
func (r SessionRepository) mutate(sessionID string, apply func(*domain.Session) bool) (domain.Session, error) {
	for {
		var session domain.Session
		err := r.db.Update(func(txn *badger.Txn) error {
			found, err := readSession(txn, sessionID)
			if err != nil {
				return err
			}
			if apply(&found) {
				if err := writeSession(txn, found); err != nil {
					return err
				}
			}
			session = found
			return nil
		})
		switch {
		case errors.Is(err, badger.ErrConflict):
			r.log.Debug("Write conflict, retrying", "session_id", sessionID)
			continue
		case errors.Is(err, badger.ErrKeyNotFound):
			return domain.Session{}, apperrors.NotFound("session %s", sessionID)
		case err != nil:
			return domain.Session{}, apperrors.Persistence(err)
		}
		return session, nil
	}
}

func readSession(txn *badger.Txn, sessionID string) (domain.Session, error) {
	item, err := txn.Get(sessionKey(sessionID))
	if err != nil {
		return domain.Session{}, err
	}
	var session domain.Session
	err = item.Value(func(value []byte) error {
		return json.Unmarshal(value, &session)
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("decoding session %s: %w", sessionID, err)
	}
	return session, nil
}

func writeSession(txn *badger.Txn, session domain.Session) error {
	bytes, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", session.ID, err)
	}
	return txn.Set(sessionKey(session.ID), bytes)
}
