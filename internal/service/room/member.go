package room

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sharetube/listen/internal/domain"
)

// join adds identity to the room and announces it to every connection but exceptConnId.
// Must run on the room's serializer.
func (s service) join(ctx context.Context, code, identity, exceptConnId string) (domain.Room, error) {
	now := s.clock.Now()
	rm, err := s.roomRepo.UpdateRoom(ctx, code, func(r *domain.Room) (bool, error) {
		if !r.Active {
			return false, ErrRoomNotFound
		}

		if !r.AddMember(identity) {
			return false, nil
		}

		r.Touch(now)
		return true, nil
	})
	if err != nil {
		return domain.Room{}, err
	}

	s.broadcast(ctx, code, &Output{
		Type:    EventMemberJoined,
		Payload: MemberPayload{Identity: identity},
	}, exceptConnId)

	return rm, nil
}

// leave removes identity from the room, hands the host role over when needed and announces both.
// Must run on the room's serializer.
func (s service) leave(ctx context.Context, code, identity string) (domain.Room, domain.RemoveMemberResult, error) {
	now := s.clock.Now()
	var res domain.RemoveMemberResult
	rm, err := s.roomRepo.UpdateRoom(ctx, code, func(r *domain.Room) (bool, error) {
		if !r.Active {
			return false, ErrRoomNotFound
		}

		res = r.RemoveMember(identity)
		if !res.Removed {
			return false, nil
		}

		r.Touch(now)
		return true, nil
	})
	if err != nil {
		return domain.Room{}, domain.RemoveMemberResult{}, err
	}

	if !res.Removed {
		return rm, res, nil
	}

	if res.HostChanged {
		s.logger.InfoContext(ctx, "host changed", "code", code, "new_host", res.NewHost)
		s.broadcast(ctx, code, &Output{
			Type:    EventHostChanged,
			Payload: HostChangedPayload{NewHost: res.NewHost},
		}, "")
	}

	if res.Deactivated {
		s.logger.InfoContext(ctx, "room deactivated", "code", code)
	}

	s.broadcast(ctx, code, &Output{
		Type:    EventMemberLeft,
		Payload: MemberPayload{Identity: identity},
	}, "")

	return rm, res, nil
}

type JoinRoomParams struct {
	ConnId string
	Code   string
}

type JoinRoomResponse struct {
	Room domain.Room
}

// JoinRoom puts the connection into the room. A connection already in another room leaves it first.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	session, err := s.getAuthenticatedSession(params.ConnId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	code := strings.ToUpper(params.Code)
	if err := validateCode(code); err != nil {
		return JoinRoomResponse{}, err
	}

	var previous string
	if session.RoomCode != "" && session.RoomCode != code {
		if _, err := s.GetRoom(ctx, &GetRoomParams{Code: code}); err != nil {
			return JoinRoomResponse{}, err
		}

		if err := s.LeaveRoom(ctx, &LeaveRoomParams{ConnId: params.ConnId}); err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to leave current room: %w", err)
		}
		previous = session.RoomCode
	}

	rm, err := s.enterRoom(ctx, params.ConnId, session.Identity, code)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to join room", "code", code, "error", err)

		// The target can deactivate between the check and the join. Go back where we came from.
		if previous != "" {
			if _, rejoinErr := s.enterRoom(ctx, params.ConnId, session.Identity, previous); rejoinErr != nil {
				s.logger.InfoContext(ctx, "failed to return to previous room", "code", previous, "error", rejoinErr)
			}
		}

		return JoinRoomResponse{}, fmt.Errorf("failed to join room: %w", err)
	}

	return JoinRoomResponse{Room: rm}, nil
}

// enterRoom joins identity to code, binds the connection and sends it the room snapshot.
func (s service) enterRoom(ctx context.Context, connId, identity, code string) (domain.Room, error) {
	var rm domain.Room
	err := s.serializer.do(ctx, code, func(ctx context.Context) error {
		var err error
		rm, err = s.join(ctx, code, identity, connId)
		if err != nil {
			return err
		}

		if err := s.connRepo.SetRoomCode(connId, code); err != nil {
			return fmt.Errorf("failed to bind connection to room: %w", err)
		}

		s.sendToConn(ctx, connId, &Output{
			Type: EventRoomState,
			Payload: RoomStatePayload{
				Room:       rm,
				ServerTime: s.clock.Now().UnixMilli(),
			},
		})

		return nil
	})

	return rm, err
}

type LeaveRoomParams struct {
	ConnId string
}

// LeaveRoom takes the connection out of its room. It is a no-op for a connection that never joined.
func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) error {
	session, err := s.connRepo.GetSession(params.ConnId)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	if session.Identity == "" || session.RoomCode == "" {
		return nil
	}

	// The connection stays bound while the identity is still a member, so disconnect retries the leave.
	if err := s.serializer.do(ctx, session.RoomCode, func(ctx context.Context) error {
		_, _, leaveErr := s.leave(ctx, session.RoomCode, session.Identity)
		if leaveErr != nil && !errors.Is(leaveErr, ErrRoomNotFound) {
			return leaveErr
		}

		if err := s.connRepo.SetRoomCode(params.ConnId, ""); err != nil {
			return fmt.Errorf("failed to unbind connection: %w", err)
		}

		return leaveErr
	}); err != nil && !errors.Is(err, ErrRoomNotFound) {
		s.logger.InfoContext(ctx, "failed to leave room", "code", session.RoomCode, "error", err)
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return nil
}

type AddMemberParams struct {
	Code     string
	Identity string
}

type AddMemberResponse struct {
	Room domain.Room
}

// AddMember joins identity to the room without a connection, announcing it to the room.
func (s service) AddMember(ctx context.Context, params *AddMemberParams) (AddMemberResponse, error) {
	code := strings.ToUpper(params.Code)
	if err := validateCode(code); err != nil {
		return AddMemberResponse{}, err
	}

	var rm domain.Room
	if err := s.serializer.do(ctx, code, func(ctx context.Context) error {
		var err error
		rm, err = s.join(ctx, code, params.Identity, "")
		return err
	}); err != nil {
		return AddMemberResponse{}, fmt.Errorf("failed to add member: %w", err)
	}

	return AddMemberResponse{Room: rm}, nil
}

type RemoveMemberParams struct {
	Code     string
	Identity string
}

type RemoveMemberResponse struct {
	// NewHost is the host after the removal, empty when the room was deactivated.
	NewHost string
}

func (s service) RemoveMember(ctx context.Context, params *RemoveMemberParams) (RemoveMemberResponse, error) {
	code := strings.ToUpper(params.Code)
	if err := validateCode(code); err != nil {
		return RemoveMemberResponse{}, err
	}

	var resp RemoveMemberResponse
	if err := s.serializer.do(ctx, code, func(ctx context.Context) error {
		rm, _, err := s.leave(ctx, code, params.Identity)
		if err != nil {
			return err
		}

		if rm.Active {
			resp.NewHost = rm.HostId
		}

		return nil
	}); err != nil {
		return RemoveMemberResponse{}, fmt.Errorf("failed to remove member: %w", err)
	}

	return resp, nil
}
