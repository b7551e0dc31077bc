// Package ws implements the push channel: a WebSocket endpoint where clients
// submit estimate updates and receive the full session state of every
// session they interact with, as it changes.
//
// Wire format is one JSON frame per message:
//
//	inbound  {"event": "update-estimate", "payload": {"sessionId", "participantId", "estimate"}}
//	inbound  {"event": "watch-session",   "payload": {"sessionId"}}
//	outbound {"event": "session-updated-<sessionId>", "payload": <Session>}
//
// Interest is registered the first time a connection touches a session key,
// either explicitly through watch-session or implicitly by sending an
// update. Delivery is at-most-once: a connection established after a publish
// never receives it, and the sender gets its own update back like everyone
// else.
package ws

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/henriquezago/poker-planning-be/contract"
	"github.com/henriquezago/poker-planning-be/domain/event"
	apperrors "github.com/henriquezago/poker-planning-be/errors"
	"github.com/henriquezago/poker-planning-be/observability"
	"github.com/henriquezago/poker-planning-be/services"
)

const sessionUpdatedPrefix = "session-updated-"

type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type UpdateEstimatePayload struct {
	SessionID     string   `json:"sessionId"`
	ParticipantID string   `json:"participantId"`
	Estimate      *float64 `json:"estimate"`
}

type WatchSessionPayload struct {
	SessionID string `json:"sessionId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Server struct {
	log             *slog.Logger
	service         services.ISessionService
	registry        contract.Registry
	monitoring      *observability.Monitoring
	sendBufferSize  int
	deliveryTimeout time.Duration
}

func NewServer(
	log *slog.Logger,
	service services.ISessionService,
	registry contract.Registry,
	monitoring *observability.Monitoring,
	sendBufferSize int,
	deliveryTimeout time.Duration,
) *Server {
	return &Server{
		log:             log,
		service:         service,
		registry:        registry,
		monitoring:      monitoring,
		sendBufferSize:  sendBufferSize,
		deliveryTimeout: deliveryTimeout,
	}
}

// Handler exposes the push channel at "/" plus a liveness probe at "/up".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/", websocket.Handler(s.handleConn))
	return mux
}

// peer serializes frame writes; the writer goroutine and direct error
// replies share the same encoder.
type peer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func (p *peer) writeFrame(frame Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

func (s *Server) handleConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	s.monitoring.ConnectionOpened()
	defer s.monitoring.ConnectionClosed()

	ctx := conn.Request().Context()
	subscriberID := uuid.NewString()
	pr := &peer{encoder: json.NewEncoder(conn)}
	sink := newConnSink(s.sendBufferSize, s.deliveryTimeout)

	watched := make(map[string]struct{})
	defer func() {
		for sessionID := range watched {
			s.registry.Unsubscribe(subscriberID, sessionID)
		}
	}()

	// Writer side: drain the sink and push session updates out.
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case e := <-sink.events:
				if err := s.pushUpdate(pr, e); err != nil {
					s.log.Debug("Push failed, client likely gone",
						"subscriber_id", subscriberID,
						"error", err)
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	decoder := json.NewDecoder(conn)
	for {
		var frame Frame
		if err := decoder.Decode(&frame); err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("Connection closed on decode error",
					"subscriber_id", subscriberID,
					"error", err)
			}
			return
		}

		switch frame.Event {
		case "update-estimate":
			s.handleUpdateEstimate(conn, frame, subscriberID, sink, pr, watched)
		case "watch-session":
			s.handleWatchSession(frame, subscriberID, sink, pr, watched)
		default:
			_ = writeError(pr, "UNSUPPORTED_EVENT", "unsupported event type")
		}
	}
}

func (s *Server) handleUpdateEstimate(
	conn *websocket.Conn,
	frame Frame,
	subscriberID string,
	sink *connSink,
	pr *peer,
	watched map[string]struct{},
) {
	var payload UpdateEstimatePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeError(pr, "INVALID_PAYLOAD", "invalid update-estimate payload")
		return
	}
	if payload.SessionID == "" || payload.ParticipantID == "" || payload.Estimate == nil {
		_ = writeError(pr, "INVALID_PAYLOAD", "sessionId, participantId and estimate are required")
		return
	}

	// Touching a session key registers interest, before the outcome of the
	// update is known, so the sender receives its own broadcast.
	s.subscribe(subscriberID, payload.SessionID, sink, watched)

	_, err := s.service.UpdateEstimate(conn.Request().Context(),
		payload.SessionID, payload.ParticipantID, *payload.Estimate)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		// Unknown session surfaces as a no-op, not an error signal.
		s.log.Debug("Estimate update for unknown session",
			"session_id", payload.SessionID)
	case errors.Is(err, apperrors.ErrValidation):
		_ = writeError(pr, "INVALID_ESTIMATE", err.Error())
	case err != nil:
		s.log.Error("Estimate update failed",
			"session_id", payload.SessionID,
			"error", err)
		_ = writeError(pr, "INTERNAL", "estimate update failed")
	}
}

func (s *Server) handleWatchSession(
	frame Frame,
	subscriberID string,
	sink *connSink,
	pr *peer,
	watched map[string]struct{},
) {
	var payload WatchSessionPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.SessionID == "" {
		_ = writeError(pr, "INVALID_PAYLOAD", "sessionId is required")
		return
	}
	s.subscribe(subscriberID, payload.SessionID, sink, watched)
}

func (s *Server) subscribe(subscriberID, sessionID string, sink *connSink, watched map[string]struct{}) {
	if _, ok := watched[sessionID]; ok {
		return
	}
	watched[sessionID] = struct{}{}
	s.registry.Subscribe(subscriberID, sessionID, sink)
}

func (s *Server) pushUpdate(pr *peer, e event.SessionEvent) error {
	updated, ok := e.(event.SessionUpdated)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(updated.Session)
	if err != nil {
		return err
	}
	return pr.writeFrame(Frame{
		Event:   sessionUpdatedPrefix + updated.Session.ID,
		Payload: payload,
	})
}

func writeError(pr *peer, code, message string) error {
	payload, err := json.Marshal(ErrorPayload{Code: code, Message: message})
	if err != nil {
		return err
	}
	return pr.writeFrame(Frame{Event: "error", Payload: payload})
}
