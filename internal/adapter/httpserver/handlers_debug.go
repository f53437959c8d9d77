package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/domain"
	apperrors "github.com/bharatgolchha/liveconvo/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

// Debug responses carry metadata only. Segment text never leaves through here.

type sessionConnections struct {
	SessionID        string                  `json:"sessionId"`
	Count            int                     `json:"count"`
	LastSequence     uint64                  `json:"lastSequence"`
	BufferedSegments int                     `json:"bufferedSegments"`
	ConversationType domain.ConversationType `json:"conversationType"`
	CreatedAt        time.Time               `json:"createdAt"`
	LastActivity     time.Time               `json:"lastActivity"`
}

type connectionsResponse struct {
	ActiveConnections []sessionConnections `json:"activeConnections"`
	Timestamp         time.Time            `json:"timestamp"`
}

type connectionDetail struct {
	ConnectionID  string    `json:"connectionId"`
	ConnectedAt   time.Time `json:"connectedAt"`
	LastDelivered uint64    `json:"lastDelivered"`
	LastAcked     uint64    `json:"lastAcked"`
	Alive         bool      `json:"alive"`
}

type sessionConnectionsResponse struct {
	SessionID   string             `json:"sessionId"`
	Connections []connectionDetail `json:"connections"`
	Timestamp   time.Time          `json:"timestamp"`
}

func (s *Server) registerDebugRoutes() {
	s.echo.GET("/debug/connections", s.handleDebugConnections)
	s.echo.GET("/debug/connections/:id", s.handleDebugSessionConnections)
}

func (s *Server) handleDebugConnections(c echo.Context) error {
	sessions := s.app.ActiveSessions(c.Request().Context())

	resp := connectionsResponse{
		ActiveConnections: make([]sessionConnections, 0, len(sessions)),
		Timestamp:         s.clock.Now().UTC(),
	}
	for _, sum := range sessions {
		resp.ActiveConnections = append(resp.ActiveConnections, sessionConnections{
			SessionID:        sum.SessionID,
			Count:            sum.ActiveConnections,
			LastSequence:     sum.LastSequence,
			BufferedSegments: sum.BufferedSegments,
			ConversationType: sum.ConversationType,
			CreatedAt:        sum.CreatedAt.UTC(),
			LastActivity:     sum.LastActivity.UTC(),
		})
	}

	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDebugSessionConnections(c echo.Context) error {
	sessionID := c.Param("id")

	conns, err := s.app.Connections(c.Request().Context(), sessionID)
	if err != nil {
		return apperrors.FromDomain(err).WithField("session_id", sessionID)
	}

	resp := sessionConnectionsResponse{
		SessionID:   sessionID,
		Connections: make([]connectionDetail, 0, len(conns)),
		Timestamp:   s.clock.Now().UTC(),
	}
	for _, info := range conns {
		resp.Connections = append(resp.Connections, connectionDetail{
			ConnectionID:  info.ConnectionID,
			ConnectedAt:   info.ConnectedAt.UTC(),
			LastDelivered: info.LastDelivered,
			LastAcked:     info.LastAcked,
			Alive:         info.Alive,
		})
	}

	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
