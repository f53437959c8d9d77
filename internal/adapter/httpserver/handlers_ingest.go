package httpserver

import (
	"fmt"
	"net/http"

	"github.com/bharatgolchha/liveconvo/internal/adapter/ingest"
	apperrors "github.com/bharatgolchha/liveconvo/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

type ingestRequest struct {
	SessionID  string `json:"sessionId"`
	SpeakerTag string `json:"speakerTag"`
	Text       string `json:"text"`
}

type ingestResponse struct {
	SequenceNumber uint64 `json:"sequenceNumber"`
}

func (s *Server) registerIngestRoutes() {
	var mw []echo.MiddlewareFunc
	if s.config.IngestRatePerSecond > 0 {
		mw = append(mw, newIngestRateLimiter(s.config.IngestRatePerSecond, s.config.IngestBurst))
	}
	s.echo.POST("/api/ingest", s.handleIngest, mw...)
}

func (s *Server) handleIngest(c echo.Context) error {
	var req ingestRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid JSON body")
	}
	if len(req.Text) > ingest.MaxTextBytes {
		return apperrors.ValidationError("text too long").
			WithField("session_id", req.SessionID).
			WithField("max_bytes", ingest.MaxTextBytes)
	}

	seq, err := s.app.IngestSegment(c.Request().Context(), req.SessionID, req.SpeakerTag, req.Text)
	if err != nil {
		return apperrors.FromDomain(err).WithField("session_id", req.SessionID)
	}

	if err := c.JSON(http.StatusAccepted, ingestResponse{SequenceNumber: seq}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
