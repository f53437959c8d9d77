package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bharatgolchha/liveconvo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")

	tests := []struct {
		name       string
		err        *Error
		wantType   ErrorType
		wantStatus int
		wantCause  error
	}{
		{"validation", ValidationError("bad input"), TypeValidation, http.StatusBadRequest, nil},
		{"not found", NotFoundError("no session"), TypeNotFound, http.StatusNotFound, nil},
		{"conflict", ConflictError("full"), TypeConflict, http.StatusConflict, nil},
		{"internal", InternalError("boom", cause), TypeInternal, http.StatusInternalServerError, cause},
		{"external", ExternalError("redis down", cause), TypeExternal, http.StatusBadGateway, cause},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus())
			assert.Equal(t, tt.wantCause, tt.err.Cause)
			assert.NotNil(t, tt.err.Context)
			assert.Contains(t, tt.err.Error(), string(tt.wantType))
		})
	}
}

func TestUnknownTypeIsInternal(t *testing.T) {
	err := &Error{Type: ErrorType("weird")}
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := InternalError("ingest failed", fmt.Errorf("ring corrupted"))

	assert.Equal(t, "internal: ingest failed: ring corrupted", err.Error())
	assert.Equal(t, "validation: bad", ValidationError("bad").Error())
}

func TestWithField(t *testing.T) {
	err := NotFoundError("session not found").
		WithField("session_id", "m-1").
		WithField("session_id", "m-2").
		WithField("last_seen", 7)

	assert.Len(t, err.Context, 2)
	assert.Equal(t, "m-2", err.Context["session_id"])
	assert.Equal(t, 7, err.Context["last_seen"])
}

func TestWithFieldNilMap(t *testing.T) {
	err := &Error{Type: TypeValidation, Message: "x"}
	err.WithField("k", "v")

	assert.Equal(t, "v", err.Context["k"])
}

func TestToResponse(t *testing.T) {
	resp := ConflictError("too many connections").WithField("limit", 50).ToResponse()

	assert.Equal(t, "too many connections", resp.Error)
	assert.Equal(t, TypeConflict, resp.Type)
	assert.Equal(t, 50, resp.Context["limit"])
}

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
	}{
		{"session not found", fmt.Errorf("ingest: %w", domain.ErrSessionNotFound), TypeNotFound},
		{"empty session id", domain.ErrEmptySessionID, TypeValidation},
		{"invalid speaker", domain.ErrInvalidSpeakerTag, TypeValidation},
		{"unknown conversation", domain.ErrUnknownConversationType, TypeValidation},
		{"too many connections", domain.ErrTooManyConnections, TypeConflict},
		{"other", errors.New("disk on fire"), TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDomain(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.Nil(t, FromDomain(nil))
}

func TestFromDomainKeepsStructuredErrors(t *testing.T) {
	original := ExternalError("nats unavailable", nil)
	assert.Same(t, original, FromDomain(fmt.Errorf("wrapped: %w", original)))
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	plain := errors.New("plain")
	got := AsStructuredError(plain)
	assert.Equal(t, TypeInternal, got.Type)
	assert.Equal(t, "internal server error", got.Message)
	assert.ErrorIs(t, got, plain)

	original := NotFoundError("session not found")
	assert.Same(t, original, AsStructuredError(fmt.Errorf("wrapped: %w", original)))
}
