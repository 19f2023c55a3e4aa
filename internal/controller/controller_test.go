package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sharetube/listen/internal/domain"
	"github.com/sharetube/listen/internal/service/room"
	"github.com/sharetube/listen/pkg/wsrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService implements the calls the REST tests need; any other call panics on the nil interface.
type stubService struct {
	iRoomService
	identities map[string]string
	rooms      map[string]domain.Room
	createErr  error
}

func (s stubService) VerifyCredential(ctx context.Context, credential string) (string, error) {
	identity, ok := s.identities[credential]
	if !ok {
		return "", fmt.Errorf("%w: unknown", room.ErrInvalidCredential)
	}

	return identity, nil
}

func (s stubService) CreateRoom(ctx context.Context, params *room.CreateRoomParams) (room.CreateRoomResponse, error) {
	if s.createErr != nil {
		return room.CreateRoomResponse{}, s.createErr
	}

	return room.CreateRoomResponse{Room: domain.Room{Code: "AB12CD", HostId: params.Identity, Members: []string{params.Identity}, Active: true}}, nil
}

func (s stubService) GetRoom(ctx context.Context, params *room.GetRoomParams) (room.GetRoomResponse, error) {
	rm, ok := s.rooms[params.Code]
	if !ok {
		return room.GetRoomResponse{}, fmt.Errorf("failed to get room: %w", room.ErrRoomNotFound)
	}

	return room.GetRoomResponse{Room: rm}, nil
}

func newTestController(svc iRoomService) *controller {
	return NewController(svc, []string{"http://localhost:3000"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMapError(t *testing.T) {
	c := newTestController(stubService{})

	tests := []struct {
		err    error
		code   string
		status int
	}{
		{fmt.Errorf("failed to play: %w", room.ErrUnauthorized), codeUnauthorized, http.StatusForbidden},
		{fmt.Errorf("failed to seek: %w", room.ErrNoActiveTrack), codeNoActiveTrack, http.StatusConflict},
		{room.ErrUnauthenticated, codeUnauthenticated, http.StatusUnauthorized},
		{room.ErrAlreadyAuthenticated, codeAlreadyAuthenticated, http.StatusConflict},
		{room.ErrNotInRoom, codeNotInRoom, http.StatusConflict},
		{room.ErrRoomNotFound, codeRoomNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: bad", room.ErrInvalidCredential), codeInvalidCredential, http.StatusUnauthorized},
		{fmt.Errorf("%w: position", room.ErrValidation), codeValidationError, http.StatusBadRequest},
		{fmt.Errorf("%w: \"skip\"", wsrouter.ErrUnknownMessageType), codeUnknownMessageType, http.StatusBadRequest},
		{wsrouter.ErrInvalidMessage, codeValidationError, http.StatusBadRequest},
		{errors.New("redis: connection refused"), codeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			payload, status := c.mapError(tt.err)
			assert.Equal(t, tt.code, payload.Code)
			assert.Equal(t, tt.status, status)
		})
	}

	payload, _ := c.mapError(errors.New("redis: connection refused"))
	assert.Equal(t, "internal error", payload.Message, "internal details must not reach clients")
}

func TestGetBearerToken(t *testing.T) {
	c := newTestController(stubService{})

	assert.Equal(t, "abc", c.getBearerToken("Bearer abc"))
	assert.Equal(t, "abc", c.getBearerToken("bearer abc"))
	assert.Empty(t, c.getBearerToken("Basic abc"))
	assert.Empty(t, c.getBearerToken(""))
}

func TestRoomsAPI(t *testing.T) {
	svc := stubService{
		identities: map[string]string{"token-u1": "u1"},
		rooms:      map[string]domain.Room{"AB12CD": {Code: "AB12CD", HostId: "u1", Members: []string{"u1"}, Active: true}},
	}
	mux := newTestController(svc).GetMux()

	serve := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	t.Run("requires credential", func(t *testing.T) {
		rec := serve(http.MethodPost, "/api/v1/rooms", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body struct {
			Error room.ErrorPayload `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, codeInvalidCredential, body.Error.Code)
	})

	t.Run("create", func(t *testing.T) {
		rec := serve(http.MethodPost, "/api/v1/rooms", "token-u1")
		require.Equal(t, http.StatusCreated, rec.Code)

		var body struct {
			Data domain.Room `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "u1", body.Data.HostId)
	})

	t.Run("get upper-cases the code", func(t *testing.T) {
		rec := serve(http.MethodGet, "/api/v1/rooms/ab12cd", "token-u1")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("get missing", func(t *testing.T) {
		rec := serve(http.MethodGet, "/api/v1/rooms/ZZZZZZ", "token-u1")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("get invalid code", func(t *testing.T) {
		rec := serve(http.MethodGet, "/api/v1/rooms/TOOLONGCODE", "token-u1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("healthz", func(t *testing.T) {
		rec := serve(http.MethodGet, "/api/v1/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})
}

func TestCreateRoomInternalError(t *testing.T) {
	svc := stubService{
		identities: map[string]string{"token-u1": "u1"},
		createErr:  errors.New("redis: connection refused"),
	}
	mux := newTestController(svc).GetMux()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", nil)
	req.Header.Set("Authorization", "Bearer token-u1")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis")
}
