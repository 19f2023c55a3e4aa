package room

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/sharetube/listen/internal/domain"
	"github.com/sharetube/listen/internal/repository/room"
)

const (
	codeLength   = 6
	codeAttempts = 5
)

var codeLetters = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

func validateCode(code string) error {
	if err := validation.Validate(code,
		validation.Required,
		validation.Length(codeLength, codeLength),
		is.Alphanumeric,
	); err != nil {
		return fmt.Errorf("%w: code: %w", ErrValidation, err)
	}

	return nil
}

type CreateRoomParams struct {
	Identity string
}

type CreateRoomResponse struct {
	Room domain.Room
}

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		rm := domain.NewRoom(s.generator.GenerateRandomString(codeLength), params.Identity, s.clock.Now())

		err := s.roomRepo.CreateRoom(ctx, &room.CreateRoomParams{Room: rm})
		if err == nil {
			s.logger.InfoContext(ctx, "room created", "code", rm.Code, "host_id", rm.HostId)
			return CreateRoomResponse{Room: rm}, nil
		}

		if !errors.Is(err, room.ErrRoomAlreadyExists) {
			return CreateRoomResponse{}, fmt.Errorf("failed to create room: %w", err)
		}

		s.logger.DebugContext(ctx, "room code collision", "code", rm.Code, "attempt", attempt)
	}

	return CreateRoomResponse{}, ErrCodeExhausted
}

type GetRoomParams struct {
	Code string
}

type GetRoomResponse struct {
	Room domain.Room
}

func (s service) GetRoom(ctx context.Context, params *GetRoomParams) (GetRoomResponse, error) {
	code := strings.ToUpper(params.Code)
	if err := validateCode(code); err != nil {
		return GetRoomResponse{}, err
	}

	rm, err := s.roomRepo.GetRoom(ctx, code)
	if err != nil {
		return GetRoomResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	if !rm.Active {
		return GetRoomResponse{}, ErrRoomNotFound
	}

	return GetRoomResponse{Room: rm}, nil
}

type GetTimeResponse struct {
	ServerTime  int64 `json:"server_time"`
	ClockOffset int64 `json:"clock_offset"`
}

func (s service) GetTime(ctx context.Context) GetTimeResponse {
	return GetTimeResponse{
		ServerTime:  s.clock.Now().UnixMilli(),
		ClockOffset: s.clock.Offset().Milliseconds(),
	}
}
