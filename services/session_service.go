package services

import (
	"context"
	"log/slog"

	"github.com/henriquezago/poker-planning-be/contract"
	"github.com/henriquezago/poker-planning-be/domain"
	"github.com/henriquezago/poker-planning-be/domain/event"
	"github.com/henriquezago/poker-planning-be/moderation"
)

type ISessionService interface {
	Create(ctx context.Context, sessionName, founderName string) (domain.Session, error)
	Join(ctx context.Context, sessionID, participantName string) (domain.Participant, error)
	Get(ctx context.Context, sessionID string) (domain.Session, error)
	UpdateEstimate(ctx context.Context, sessionID, participantID string, estimate float64) (domain.Session, error)
	Finalize(ctx context.Context, sessionID, participantID string, estimate float64) error
}

// SessionService orchestrates the session lifecycle against the persistence
// gateway. It holds only transient session copies during an operation; the
// repository owns the documents. Errors from the gateway propagate to the
// caller unmodified, no retry, no rollback across steps.
type SessionService struct {
	repo      contract.SessionRepository
	publisher contract.Publisher
	moderator *moderation.NameModerator
	log       *slog.Logger
}

func NewSessionService(
	repo contract.SessionRepository,
	publisher contract.Publisher,
	moderator *moderation.NameModerator,
	log *slog.Logger,
) *SessionService {
	return &SessionService{repo: repo, publisher: publisher, moderator: moderator, log: log}
}

// Create builds a session with its founding participant (estimate unset),
// persists it and returns the stored representation with assigned ids.
func (s *SessionService) Create(ctx context.Context, sessionName, founderName string) (domain.Session, error) {
	if err := domain.ValidateSessionName(sessionName); err != nil {
		return domain.Session{}, err
	}
	if err := domain.ValidateParticipantName(founderName); err != nil {
		return domain.Session{}, err
	}

	session := domain.NewSession(
		s.moderator.CensorName(sessionName),
		s.moderator.CensorName(founderName),
	)
	if err := s.repo.Save(ctx, session); err != nil {
		// The in-memory session is discarded, never assumed saved.
		return domain.Session{}, err
	}

	s.log.Info("Session created", "session_id", session.ID, "name", session.Name)
	return session, nil
}

// Join appends a new participant (estimate unset) to an existing session.
// The participant id is generated here, before the store write, so two
// concurrent joins can never collide on identifiers.
func (s *SessionService) Join(ctx context.Context, sessionID, participantName string) (domain.Participant, error) {
	if err := domain.ValidateParticipantName(participantName); err != nil {
		return domain.Participant{}, err
	}

	participant := domain.NewParticipant(s.moderator.CensorName(participantName))
	if _, err := s.repo.AppendParticipant(ctx, sessionID, participant); err != nil {
		return domain.Participant{}, err
	}

	s.log.Info("Participant joined",
		"session_id", sessionID,
		"participant_id", participant.ID)
	return participant, nil
}

func (s *SessionService) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	return s.repo.FindByID(ctx, sessionID)
}

// UpdateEstimate sets the matched participant's estimate and broadcasts the
// fresh session state to that session's subscribers. A known session with an
// unknown participant id returns the unchanged session without error and
// without a broadcast; callers cannot distinguish that from a zero-effect
// success.
func (s *SessionService) UpdateEstimate(ctx context.Context, sessionID, participantID string, estimate float64) (domain.Session, error) {
	if err := domain.ValidateEstimate(&estimate); err != nil {
		return domain.Session{}, err
	}

	session, applied, err := s.repo.SetEstimate(ctx, sessionID, participantID, estimate)
	if err != nil {
		return domain.Session{}, err
	}
	if applied {
		s.publisher.Publish(event.SessionUpdated{Session: session})
	} else {
		s.log.Debug("Estimate update matched no participant",
			"session_id", sessionID,
			"participant_id", participantID)
	}
	return session, nil
}

// Finalize records the session-level decided estimate. The write is scoped
// by both the session id and the participant id: the named participant must
// belong to that session or nothing happens. Participant estimates are never
// touched by finalization.
func (s *SessionService) Finalize(ctx context.Context, sessionID, participantID string, estimate float64) error {
	if err := domain.ValidateEstimate(&estimate); err != nil {
		return err
	}

	session, applied, err := s.repo.SetFinalEstimate(ctx, sessionID, participantID, estimate)
	if err != nil {
		return err
	}
	if applied {
		s.publisher.Publish(event.SessionUpdated{Session: session})
		s.log.Info("Estimate finalized", "session_id", sessionID, "estimate", estimate)
	}
	return nil
}
