package controller

import (
	"errors"
	"net/http"

	"github.com/sharetube/listen/internal/service/room"
	"github.com/sharetube/listen/pkg/wsrouter"
)

const (
	codeUnauthenticated      = "UNAUTHENTICATED"
	codeUnauthorized         = "UNAUTHORIZED"
	codeRoomNotFound         = "ROOM_NOT_FOUND"
	codeNoActiveTrack        = "NO_ACTIVE_TRACK"
	codeInvalidCredential    = "INVALID_CREDENTIAL"
	codeAlreadyAuthenticated = "ALREADY_AUTHENTICATED"
	codeNotInRoom            = "NOT_IN_ROOM"
	codeValidationError      = "VALIDATION_ERROR"
	codeUnknownMessageType   = "UNKNOWN_MESSAGE_TYPE"
	codeInternal             = "INTERNAL"
)

var ErrValidationError = errors.New("validation error")

type errorMapping struct {
	err    error
	code   string
	status int
}

var errorMappings = []errorMapping{
	{wsrouter.ErrUnknownMessageType, codeUnknownMessageType, http.StatusBadRequest},
	{wsrouter.ErrInvalidMessage, codeValidationError, http.StatusBadRequest},
	{ErrValidationError, codeValidationError, http.StatusBadRequest},
	{room.ErrValidation, codeValidationError, http.StatusBadRequest},
	{room.ErrUnauthenticated, codeUnauthenticated, http.StatusUnauthorized},
	{room.ErrInvalidCredential, codeInvalidCredential, http.StatusUnauthorized},
	{room.ErrAlreadyAuthenticated, codeAlreadyAuthenticated, http.StatusConflict},
	{room.ErrUnauthorized, codeUnauthorized, http.StatusForbidden},
	{room.ErrRoomNotFound, codeRoomNotFound, http.StatusNotFound},
	{room.ErrNoActiveTrack, codeNoActiveTrack, http.StatusConflict},
	{room.ErrNotInRoom, codeNotInRoom, http.StatusConflict},
}

// mapError translates a service error into the client-facing error code and HTTP status.
// Anything unrecognised is internal and its details stay in the log.
func (c controller) mapError(err error) (room.ErrorPayload, int) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return room.ErrorPayload{Code: m.code, Message: err.Error()}, m.status
		}
	}

	return room.ErrorPayload{Code: codeInternal, Message: "internal error"}, http.StatusInternalServerError
}
