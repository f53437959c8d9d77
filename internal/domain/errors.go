package domain

import "errors"

var (
	ErrSessionNotFound         = errors.New("session not found")
	ErrEmptySessionID          = errors.New("session id is required")
	ErrInvalidSpeakerTag       = errors.New("invalid speaker tag")
	ErrUnknownConversationType = errors.New("unknown conversation type")
	ErrConnectionDead          = errors.New("connection dead")
	ErrSessionClosed           = errors.New("session closed")
	ErrTooManyConnections      = errors.New("too many connections for session")
)
