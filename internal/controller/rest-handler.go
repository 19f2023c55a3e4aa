package controller

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/listen/internal/service/room"
	"github.com/sharetube/listen/pkg/rest"
)

type roomCodeParams struct {
	Code string `json:"code" validate:"required,len=6,alphanum"`
}

// getRoomCode reads and validates the {code} path parameter. On failure it has already
// written the response.
func (c controller) getRoomCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	params := roomCodeParams{Code: strings.ToUpper(chi.URLParam(r, "code"))}
	if validationErrors, ok := c.validate.Validate(params); !ok {
		c.logger.InfoContext(r.Context(), "invalid room code", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return "", false
	}

	return params.Code, true
}

func (c controller) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	payload, status := c.mapError(err)
	if status == http.StatusInternalServerError {
		c.logger.ErrorContext(r.Context(), "request failed", "error", err)
	} else {
		c.logger.InfoContext(r.Context(), "request rejected", "code", payload.Code, "error", err)
	}

	rest.WriteJSON(w, status, rest.Envelope{"error": payload})
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	resp, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		Identity: c.getIdentityFromCtx(r.Context()),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": resp.Room})
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	code, ok := c.getRoomCode(w, r)
	if !ok {
		return
	}

	resp, err := c.roomService.GetRoom(r.Context(), &room.GetRoomParams{Code: code})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": resp.Room})
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	code, ok := c.getRoomCode(w, r)
	if !ok {
		return
	}

	resp, err := c.roomService.AddMember(r.Context(), &room.AddMemberParams{
		Code:     code,
		Identity: c.getIdentityFromCtx(r.Context()),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": resp.Room})
}

type leaveRoomResponse struct {
	Left    bool   `json:"left"`
	NewHost string `json:"new_host"`
}

func (c controller) leaveRoom(w http.ResponseWriter, r *http.Request) {
	code, ok := c.getRoomCode(w, r)
	if !ok {
		return
	}

	resp, err := c.roomService.RemoveMember(r.Context(), &room.RemoveMemberParams{
		Code:     code,
		Identity: c.getIdentityFromCtx(r.Context()),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": leaveRoomResponse{
		Left:    true,
		NewHost: resp.NewHost,
	}})
}

func (c controller) getTime(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.roomService.GetTime(r.Context())})
}
