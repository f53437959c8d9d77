package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bharatgolchha/liveconvo/internal/adapter/websocket"
	apperrors "github.com/bharatgolchha/liveconvo/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

func (s *Server) registerSubscriptionRoutes() {
	s.echo.GET("/ws/sessions/:id", s.handleSubscribe)
}

// handleSubscribe upgrades to a transcript stream. ?lastSeen=k replays segments after k.
func (s *Server) handleSubscribe(c echo.Context) error {
	sessionID := c.Param("id")

	var lastSeen *uint64
	if raw := c.QueryParam("lastSeen"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return apperrors.ValidationError("lastSeen must be a non-negative integer").
				WithField("session_id", sessionID).
				WithField("last_seen", raw)
		}
		lastSeen = &v
	}

	err := s.subscribers.Serve(c.Response(), c.Request(), c.RealIP(), sessionID, lastSeen)
	if errors.Is(err, websocket.ErrNotWebSocket) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if errors.Is(err, websocket.ErrConnectionLimit) {
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	}
	if err != nil {
		return apperrors.FromDomain(err).WithField("session_id", sessionID)
	}
	return nil
}
