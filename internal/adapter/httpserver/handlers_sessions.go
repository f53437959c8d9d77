package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/domain"
	apperrors "github.com/bharatgolchha/liveconvo/internal/platform/errors"
	"github.com/bharatgolchha/liveconvo/internal/talkstats"
	"github.com/labstack/echo/v4"
)

type labelRequest struct {
	Label string `json:"label"`
}

type sessionResponse struct {
	SessionID        string                  `json:"sessionId"`
	ConversationType domain.ConversationType `json:"conversationType"`
	CreatedAt        time.Time               `json:"createdAt"`
}

type statsResponse struct {
	SessionID        string                  `json:"sessionId"`
	ConversationType domain.ConversationType `json:"conversationType"`
	MeWords          int                     `json:"meWords"`
	ThemWords        int                     `json:"themWords"`
	MeShare          float64                 `json:"meShare"`
	LastSequence     uint64                  `json:"lastSequence"`
}

func (s *Server) registerSessionRoutes() {
	s.echo.PUT("/api/sessions/:id", s.handleOpenSession)
	s.echo.DELETE("/api/sessions/:id", s.handleCloseSession)
	s.echo.GET("/api/sessions/:id/stats", s.handleSessionStats)
	s.echo.POST("/api/classify", s.handleClassify)
}

func (s *Server) handleOpenSession(c echo.Context) error {
	sessionID := c.Param("id")

	var req labelRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid JSON body").WithField("session_id", sessionID)
	}

	summary, err := s.app.OpenSession(c.Request().Context(), sessionID, req.Label)
	if err != nil {
		return apperrors.FromDomain(err).WithField("session_id", sessionID)
	}

	resp := sessionResponse{
		SessionID:        summary.SessionID,
		ConversationType: summary.ConversationType,
		CreatedAt:        summary.CreatedAt.UTC(),
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCloseSession(c echo.Context) error {
	s.app.CloseSession(c.Request().Context(), c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSessionStats(c echo.Context) error {
	sessionID := c.Param("id")

	summary, err := s.app.Session(c.Request().Context(), sessionID)
	if err != nil {
		return apperrors.FromDomain(err).WithField("session_id", sessionID)
	}

	resp := statsResponse{
		SessionID:        summary.SessionID,
		ConversationType: summary.ConversationType,
		MeWords:          summary.Stats.MeWords,
		ThemWords:        summary.Stats.ThemWords,
		MeShare:          talkstats.Share(summary.Stats),
		LastSequence:     summary.LastSequence,
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleClassify(c echo.Context) error {
	var req labelRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid JSON body")
	}

	convType, err := s.app.Classify(req.Label)
	if err != nil {
		return apperrors.FromDomain(err).WithField("label", req.Label)
	}

	if err := c.JSON(http.StatusOK, map[string]domain.ConversationType{"conversationType": convType}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
