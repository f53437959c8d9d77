package domain

import (
	"context"
	"time"
)

// SessionSummary is the metadata-only view of a live session.
type SessionSummary struct {
	SessionID         string
	ConversationType  ConversationType
	CreatedAt         time.Time
	LastActivity      time.Time
	LastSequence      uint64
	ActiveConnections int
	BufferedSegments  int
	Stats             TalkStats
}

// ConnectionInfo is the metadata-only view of one subscriber connection.
type ConnectionInfo struct {
	ConnectionID  string
	SessionID     string
	ConnectedAt   time.Time
	LastDelivered uint64
	LastAcked     uint64
	Alive         bool
	CloseReason   string
}

// SegmentIngester is the ingest boundary used by transcript sources.
type SegmentIngester interface {
	IngestSegment(ctx context.Context, sessionID, speakerTag, text string) (uint64, error)
}
