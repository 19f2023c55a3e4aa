package room

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sharetube/listen/internal/domain"
)

type playbackUpdateFunc func(r *domain.Room, identity string, now time.Time) (bool, error)

type PlaybackResponse struct {
	PlaybackState *domain.PlaybackState
}

// updatePlayback applies update to the sender's room and broadcasts the resulting state to the
// whole room, sender included. The state is re-broadcast even when update changed nothing.
func (s service) updatePlayback(ctx context.Context, connId string, update playbackUpdateFunc) (PlaybackResponse, error) {
	session, err := s.getJoinedSession(connId)
	if err != nil {
		return PlaybackResponse{}, err
	}

	code := session.RoomCode
	var state *domain.PlaybackState
	if err := s.serializer.do(ctx, code, func(ctx context.Context) error {
		now := s.clock.Now()
		rm, err := s.roomRepo.UpdateRoom(ctx, code, func(r *domain.Room) (bool, error) {
			if !r.Active {
				return false, ErrRoomNotFound
			}

			changed, err := update(r, session.Identity, now)
			if err != nil || !changed {
				return false, err
			}

			r.Touch(now)
			return true, nil
		})
		if err != nil {
			return err
		}

		state = rm.PlaybackState
		s.broadcast(ctx, code, &Output{
			Type: EventPlaybackUpdate,
			Payload: PlaybackUpdatePayload{
				PlaybackState: state,
				ServerTime:    now.UnixMilli(),
			},
		}, "")

		return nil
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to update playback", "code", code, "error", err)
		return PlaybackResponse{}, fmt.Errorf("failed to update playback: %w", err)
	}

	return PlaybackResponse{PlaybackState: state}, nil
}

type PlayParams struct {
	ConnId string
	Track  domain.Track
}

func (p *PlayParams) Validate() error {
	return validation.ValidateStruct(&p.Track,
		validation.Field(&p.Track.URI, validation.Required, validation.Length(1, 512)),
		validation.Field(&p.Track.Name, validation.Length(0, 512)),
		validation.Field(&p.Track.Artist, validation.Length(0, 512)),
	)
}

func (s service) Play(ctx context.Context, params *PlayParams) (PlaybackResponse, error) {
	if err := params.Validate(); err != nil {
		return PlaybackResponse{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return s.updatePlayback(ctx, params.ConnId, func(r *domain.Room, identity string, now time.Time) (bool, error) {
		if err := r.Play(identity, params.Track, now); err != nil {
			return false, err
		}

		return true, nil
	})
}

type PauseParams struct {
	ConnId string
}

func (s service) Pause(ctx context.Context, params *PauseParams) (PlaybackResponse, error) {
	return s.updatePlayback(ctx, params.ConnId, func(r *domain.Room, identity string, now time.Time) (bool, error) {
		return r.Pause(identity, now)
	})
}

type ResumeParams struct {
	ConnId string
}

func (s service) Resume(ctx context.Context, params *ResumeParams) (PlaybackResponse, error) {
	return s.updatePlayback(ctx, params.ConnId, func(r *domain.Room, identity string, now time.Time) (bool, error) {
		return r.Resume(identity, now)
	})
}

type SeekParams struct {
	ConnId   string
	Position int64 `json:"position"`
}

func (p *SeekParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Position, validation.Min(int64(0))),
	)
}

func (s service) Seek(ctx context.Context, params *SeekParams) (PlaybackResponse, error) {
	if err := params.Validate(); err != nil {
		return PlaybackResponse{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return s.updatePlayback(ctx, params.ConnId, func(r *domain.Room, identity string, now time.Time) (bool, error) {
		if err := r.Seek(identity, params.Position, now); err != nil {
			return false, err
		}

		return true, nil
	})
}
