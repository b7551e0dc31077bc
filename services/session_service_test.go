package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/henriquezago/poker-planning-be/domain/event"
	apperrors "github.com/henriquezago/poker-planning-be/errors"
	"github.com/henriquezago/poker-planning-be/moderation"
	"github.com/henriquezago/poker-planning-be/repositories"
)

// capturingPublisher records published events in place of the fanout worker.
type capturingPublisher struct {
	mu     sync.Mutex
	events []event.SessionUpdated
}

func (p *capturingPublisher) Publish(e event.SessionUpdated) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturingPublisher) published() []event.SessionUpdated {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.SessionUpdated(nil), p.events...)
}

func newTestService(t *testing.T, words ...string) (*SessionService, *capturingPublisher) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	moderator, err := moderation.NewNameModerator(words, '*')
	require.NoError(t, err)

	publisher := &capturingPublisher{}
	repository := repositories.NewSessionRepository(db, slog.Default())
	return NewSessionService(repository, publisher, moderator, slog.Default()), publisher
}

func TestSessionService_Create(t *testing.T) {
	req := require.New(t)
	service, _ := newTestService(t)
	ctx := context.Background()

	session, err := service.Create(ctx, "Sprint 12", "Alice")
	req.NoError(err)
	req.NotEmpty(session.ID)
	req.Len(session.Participants, 1)
	req.Equal("Alice", session.Participants[0].Name)
	req.Nil(session.Participants[0].Estimate)

	// The returned representation is what the store holds.
	stored, err := service.Get(ctx, session.ID)
	req.NoError(err)
	req.Equal(session, stored)
}

func TestSessionService_Create_RejectsBadInput(t *testing.T) {
	req := require.New(t)
	service, publisher := newTestService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, "", "Alice")
	req.ErrorIs(err, apperrors.ErrValidation)
	_, err = service.Create(ctx, "Sprint 12", "   ")
	req.ErrorIs(err, apperrors.ErrValidation)
	req.Empty(publisher.published())
}

func TestSessionService_Create_CensorsNames(t *testing.T) {
	req := require.New(t)
	service, _ := newTestService(t, "fudge")
	ctx := context.Background()

	session, err := service.Create(ctx, "fudge sprint", "Mr Fudge")
	req.NoError(err)
	req.Equal("***** sprint", session.Name)
	req.Equal("Mr *****", session.Participants[0].Name)
}

func TestSessionService_Join(t *testing.T) {
	req := require.New(t)
	service, _ := newTestService(t)
	ctx := context.Background()

	session, err := service.Create(ctx, "Sprint 12", "Alice")
	req.NoError(err)

	bob, err := service.Join(ctx, session.ID, "Bob")
	req.NoError(err)
	req.NotEmpty(bob.ID)
	req.Nil(bob.Estimate)

	fetched, err := service.Get(ctx, session.ID)
	req.NoError(err)
	req.Len(fetched.Participants, 2)
	req.Equal(bob, fetched.Participants[1])
}

func TestSessionService_Join_UnknownSession(t *testing.T) {
	req := require.New(t)
	service, _ := newTestService(t)

	_, err := service.Join(context.Background(), "nope", "Bob")
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func TestSessionService_UpdateEstimate_BroadcastsFreshState(t *testing.T) {
	req := require.New(t)
	service, publisher := newTestService(t)
	ctx := context.Background()

	session, err := service.Create(ctx, "Sprint 12", "Alice")
	req.NoError(err)
	bob, err := service.Join(ctx, session.ID, "Bob")
	req.NoError(err)

	updated, err := service.UpdateEstimate(ctx, session.ID, bob.ID, 8)
	req.NoError(err)

	estimated, ok := updated.Participant(bob.ID)
	req.True(ok)
	req.Equal(8.0, *estimated.Estimate)
	req.Nil(updated.Participants[0].Estimate)

	events := publisher.published()
	req.Len(events, 1)
	req.Equal(session.ID, events[0].SessionID())
	req.Equal(updated, events[0].Session)
}

func TestSessionService_UpdateEstimate_UnknownSession(t *testing.T) {
	req := require.New(t)
	service, _ := newTestService(t)

	_, err := service.UpdateEstimate(context.Background(), "nope", "ghost", 8)
	req.ErrorIs(err, apperrors.ErrNotFound)
}

// A known session with an unknown participant returns the unchanged session,
// no error, and publishes nothing.
func TestSessionService_UpdateEstimate_UnknownParticipantIsSilent(t *testing.T) {
	req := require.New(t)
	service, publisher := newTestService(t)
	ctx := context.Background()

	session, err := service.Create(ctx, "Sprint 12", "Alice")
	req.NoError(err)

	unchanged, err := service.UpdateEstimate(ctx, session.ID, "ghost", 8)
	req.NoError(err)
	req.Equal(session, unchanged)
	req.Empty(publisher.published())
}

func TestSessionService_Finalize(t *testing.T) {
	req := require.New(t)
	service, publisher := newTestService(t)
	ctx := context.Background()

	session, err := service.Create(ctx, "Sprint 12", "Alice")
	req.NoError(err)
	alice := session.Participants[0]

	req.NoError(service.Finalize(ctx, session.ID, alice.ID, 13))

	fetched, err := service.Get(ctx, session.ID)
	req.NoError(err)
	req.NotNil(fetched.FinalEstimate)
	req.Equal(13.0, *fetched.FinalEstimate)
	req.Nil(fetched.Participants[0].Estimate)

	events := publisher.published()
	req.Len(events, 1)
	req.Equal(session.ID, events[0].SessionID())
}

func TestSessionService_Finalize_ParticipantOutsideSession(t *testing.T) {
	req := require.New(t)
	service, publisher := newTestService(t)
	ctx := context.Background()

	session, err := service.Create(ctx, "Sprint 12", "Alice")
	req.NoError(err)
	other, err := service.Create(ctx, "Sprint 13", "Carol")
	req.NoError(err)

	// Alice's id does not qualify against the other session.
	req.NoError(service.Finalize(ctx, other.ID, session.Participants[0].ID, 13))

	fetched, err := service.Get(ctx, other.ID)
	req.NoError(err)
	req.Nil(fetched.FinalEstimate)
	req.Empty(publisher.published())
}
