// Package httpapi exposes the synchronous request/reply surface of the
// estimation service. It translates HTTP requests into session service calls
// and maps the error taxonomy onto status codes; no domain logic lives here.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/henriquezago/poker-planning-be/errors"
	"github.com/henriquezago/poker-planning-be/observability"
	"github.com/henriquezago/poker-planning-be/services"
)

type SessionController struct {
	service    services.ISessionService
	monitoring *observability.Monitoring
	log        *slog.Logger
}

func NewSessionController(service services.ISessionService, monitoring *observability.Monitoring, log *slog.Logger) *SessionController {
	return &SessionController{service: service, monitoring: monitoring, log: log}
}

// NewRouter wires the API routes. Route shapes mirror the public contract:
// session JSON is served exactly as stored.
func NewRouter(controller *SessionController) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/session", controller.GetSession)
	router.POST("/create-session", controller.CreateSession)
	router.POST("/participate-in-session", controller.ParticipateInSession)
	router.POST("/finalize-estimate", controller.FinalizeEstimate)
	router.GET("/healthz", controller.Health)

	return router
}

func (c *SessionController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.monitoring.Snapshot())
}

type CreateSessionRequest struct {
	SessionName     string `json:"sessionName" binding:"required"`
	ParticipantName string `json:"participantName" binding:"required"`
}

type ParticipateRequest struct {
	SessionID       string `json:"sessionId" binding:"required"`
	ParticipantName string `json:"participantName" binding:"required"`
}

type FinalizeEstimateRequest struct {
	SessionID     string   `json:"sessionId" binding:"required"`
	ParticipantID string   `json:"participantId" binding:"required"`
	Estimate      *float64 `json:"estimate" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (c *SessionController) GetSession(ctx *gin.Context) {
	sessionID := ctx.Query("sessionId")
	if sessionID == "" {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "sessionId is required"})
		return
	}

	session, err := c.service.Get(ctx.Request.Context(), sessionID)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, session)
}

func (c *SessionController) CreateSession(ctx *gin.Context) {
	var req CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	session, err := c.service.Create(ctx.Request.Context(), req.SessionName, req.ParticipantName)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	c.monitoring.SessionCreated()
	ctx.JSON(http.StatusOK, session)
}

func (c *SessionController) ParticipateInSession(ctx *gin.Context) {
	var req ParticipateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	participant, err := c.service.Join(ctx.Request.Context(), req.SessionID, req.ParticipantName)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	c.monitoring.ParticipantAdded()
	ctx.JSON(http.StatusOK, participant)
}

func (c *SessionController) FinalizeEstimate(ctx *gin.Context) {
	var req FinalizeEstimateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := c.service.Finalize(ctx.Request.Context(), req.SessionID, req.ParticipantID, *req.Estimate)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusOK)
}

func (c *SessionController) fail(ctx *gin.Context, err error) {
	status := errors.MapToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		c.log.Error("Request failed", "path", ctx.FullPath(), "error", err)
	} else {
		c.log.Debug("Request rejected", "path", ctx.FullPath(), "error", err)
	}
	ctx.JSON(status, ErrorResponse{Error: err.Error()})
}
