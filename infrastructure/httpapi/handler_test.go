package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/henriquezago/poker-planning-be/domain"
	"github.com/henriquezago/poker-planning-be/domain/event"
	"github.com/henriquezago/poker-planning-be/moderation"
	"github.com/henriquezago/poker-planning-be/observability"
	"github.com/henriquezago/poker-planning-be/repositories"
	"github.com/henriquezago/poker-planning-be/services"
)

type nopPublisher struct{}

func (nopPublisher) Publish(event.SessionUpdated) {}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	moderator, err := moderation.NewNameModerator(nil, '*')
	require.NoError(t, err)

	repository := repositories.NewSessionRepository(db, slog.Default())
	service := services.NewSessionService(repository, nopPublisher{}, moderator, slog.Default())
	monitoring := observability.NewMonitoring(slog.Default())
	return NewRouter(NewSessionController(service, monitoring, slog.Default()))
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func createSession(t *testing.T, router *gin.Engine) domain.Session {
	t.Helper()
	recorder := doJSON(t, router, http.MethodPost, "/create-session", CreateSessionRequest{
		SessionName:     "Sprint 12",
		ParticipantName: "Alice",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var session domain.Session
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &session))
	return session
}

func TestCreateSession(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	session := createSession(t, router)
	req.NotEmpty(session.ID)
	req.Equal("Sprint 12", session.Name)
	req.Len(session.Participants, 1)
	req.Equal("Alice", session.Participants[0].Name)
	req.Nil(session.Participants[0].Estimate)
	req.Nil(session.FinalEstimate)
}

func TestCreateSession_InvalidBody(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/create-session", map[string]string{
		"sessionName": "Sprint 12",
	})
	req.Equal(http.StatusBadRequest, recorder.Code)
}

func TestCreateSession_BlankName(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/create-session", CreateSessionRequest{
		SessionName:     "   ",
		ParticipantName: "Alice",
	})
	req.Equal(http.StatusBadRequest, recorder.Code)
}

func TestGetSession(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)
	session := createSession(t, router)

	recorder := doJSON(t, router, http.MethodGet, "/session?sessionId="+session.ID, nil)
	req.Equal(http.StatusOK, recorder.Code)

	var fetched domain.Session
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &fetched))
	req.Equal(session.ID, fetched.ID)
	req.Equal(session.Name, fetched.Name)
}

func TestGetSession_MissingID(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodGet, "/session", nil)
	req.Equal(http.StatusBadRequest, recorder.Code)
}

func TestGetSession_Unknown(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodGet, "/session?sessionId=missing", nil)
	req.Equal(http.StatusNotFound, recorder.Code)

	var body ErrorResponse
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &body))
	req.NotEmpty(body.Error)
}

func TestParticipateInSession(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)
	session := createSession(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/participate-in-session", ParticipateRequest{
		SessionID:       session.ID,
		ParticipantName: "Bob",
	})
	req.Equal(http.StatusOK, recorder.Code)

	var participant domain.Participant
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &participant))
	req.NotEmpty(participant.ID)
	req.Equal("Bob", participant.Name)
	req.Nil(participant.Estimate)

	fetched := doJSON(t, router, http.MethodGet, "/session?sessionId="+session.ID, nil)
	var updated domain.Session
	req.NoError(json.Unmarshal(fetched.Body.Bytes(), &updated))
	req.Len(updated.Participants, 2)
}

func TestParticipateInSession_UnknownSession(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/participate-in-session", ParticipateRequest{
		SessionID:       "missing",
		ParticipantName: "Bob",
	})
	req.Equal(http.StatusNotFound, recorder.Code)
}

func TestFinalizeEstimate(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)
	session := createSession(t, router)
	estimate := 8.0

	recorder := doJSON(t, router, http.MethodPost, "/finalize-estimate", FinalizeEstimateRequest{
		SessionID:     session.ID,
		ParticipantID: session.Participants[0].ID,
		Estimate:      &estimate,
	})
	req.Equal(http.StatusOK, recorder.Code)

	fetched := doJSON(t, router, http.MethodGet, "/session?sessionId="+session.ID, nil)
	var updated domain.Session
	req.NoError(json.Unmarshal(fetched.Body.Bytes(), &updated))
	req.NotNil(updated.FinalEstimate)
	req.Equal(estimate, *updated.FinalEstimate)
}

func TestFinalizeEstimate_MissingEstimate(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)
	session := createSession(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/finalize-estimate", map[string]string{
		"sessionId":     session.ID,
		"participantId": session.Participants[0].ID,
	})
	req.Equal(http.StatusBadRequest, recorder.Code)
}

func TestFinalizeEstimate_UnknownSession(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)
	estimate := 5.0

	recorder := doJSON(t, router, http.MethodPost, "/finalize-estimate", FinalizeEstimateRequest{
		SessionID:     "missing",
		ParticipantID: "someone",
		Estimate:      &estimate,
	})
	req.Equal(http.StatusNotFound, recorder.Code)
}

func TestHealth(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)
	createSession(t, router)

	recorder := doJSON(t, router, http.MethodGet, "/healthz", nil)
	req.Equal(http.StatusOK, recorder.Code)

	var stats observability.Stats
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &stats))
	req.Equal(uint64(1), stats.SessionsCreated)
}
