package controller

import (
	"context"
	"fmt"

	"github.com/sharetube/listen/internal/domain"
	"github.com/sharetube/listen/internal/service/room"
)

type EmptyStruct struct{}

func (es *EmptyStruct) UnmarshalJSON([]byte) error {
	return nil
}

type AuthenticateInput struct {
	Token string `json:"token"`
}

func (c controller) handleAuthenticate(ctx context.Context, input AuthenticateInput) error {
	cl := c.getClientFromCtx(ctx)

	resp, err := c.roomService.Authenticate(ctx, &room.AuthenticateParams{
		ConnId:     cl.id,
		Credential: input.Token,
	})
	if err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	c.reply(ctx, cl, &room.Output{
		Type: room.EventAuthenticated,
		Payload: room.AuthenticatedPayload{
			Identity:    resp.Identity,
			ClockOffset: resp.ClockOffset,
		},
	})

	return nil
}

type JoinRoomInput struct {
	Code string `json:"code"`
}

func (c controller) handleJoinRoom(ctx context.Context, input JoinRoomInput) error {
	if _, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		ConnId: c.getConnIdFromCtx(ctx),
		Code:   input.Code,
	}); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

func (c controller) handleLeaveRoom(ctx context.Context, _ EmptyStruct) error {
	if err := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		ConnId: c.getConnIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return nil
}

type PlayInput struct {
	Track domain.Track `json:"track"`
}

func (c controller) handlePlay(ctx context.Context, input PlayInput) error {
	if _, err := c.roomService.Play(ctx, &room.PlayParams{
		ConnId: c.getConnIdFromCtx(ctx),
		Track:  input.Track,
	}); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}

	return nil
}

func (c controller) handlePause(ctx context.Context, _ EmptyStruct) error {
	if _, err := c.roomService.Pause(ctx, &room.PauseParams{
		ConnId: c.getConnIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	return nil
}

func (c controller) handleResume(ctx context.Context, _ EmptyStruct) error {
	if _, err := c.roomService.Resume(ctx, &room.ResumeParams{
		ConnId: c.getConnIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to resume: %w", err)
	}

	return nil
}

type SeekInput struct {
	Position *int64 `json:"position"`
}

func (c controller) handleSeek(ctx context.Context, input SeekInput) error {
	if input.Position == nil {
		return fmt.Errorf("position is required: %w", ErrValidationError)
	}

	if _, err := c.roomService.Seek(ctx, &room.SeekParams{
		ConnId:   c.getConnIdFromCtx(ctx),
		Position: *input.Position,
	}); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	return nil
}

func (c controller) handlePing(ctx context.Context, _ EmptyStruct) error {
	c.reply(ctx, c.getClientFromCtx(ctx), &room.Output{
		Type:    room.EventPong,
		Payload: room.PongPayload{ServerTime: c.roomService.GetTime(ctx).ServerTime},
	})

	return nil
}
