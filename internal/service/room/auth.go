package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/listen/internal/repository/connection"
)

type ConnectMemberParams struct {
	Conn connection.Conn
}

func (s service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	if err := s.connRepo.Add(params.Conn); err != nil {
		s.logger.InfoContext(ctx, "failed to add connection", "error", err)
		return fmt.Errorf("failed to add connection: %w", err)
	}

	return nil
}

type AuthenticateParams struct {
	ConnId     string
	Credential string
}

type AuthenticateResponse struct {
	Identity    string
	ClockOffset int64
}

// Authenticate binds the identity behind credential to the connection. It succeeds at most once
// per connection.
func (s service) Authenticate(ctx context.Context, params *AuthenticateParams) (AuthenticateResponse, error) {
	session, err := s.connRepo.GetSession(params.ConnId)
	if err != nil {
		return AuthenticateResponse{}, fmt.Errorf("failed to get session: %w", err)
	}

	if session.Identity != "" {
		return AuthenticateResponse{}, ErrAlreadyAuthenticated
	}

	identity, err := s.VerifyCredential(ctx, params.Credential)
	if err != nil {
		return AuthenticateResponse{}, err
	}

	if err := s.connRepo.SetIdentity(params.ConnId, identity); err != nil {
		return AuthenticateResponse{}, fmt.Errorf("failed to set identity: %w", err)
	}

	return AuthenticateResponse{
		Identity:    identity,
		ClockOffset: s.clock.Offset().Milliseconds(),
	}, nil
}

// VerifyCredential resolves credential to an identity without touching any connection.
func (s service) VerifyCredential(ctx context.Context, credential string) (string, error) {
	if credential == "" {
		return "", fmt.Errorf("%w: empty credential", ErrInvalidCredential)
	}

	identity, err := s.authenticator.Authenticate(ctx, credential)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to authenticate", "error", err)
		return "", fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	return identity, nil
}

type DisconnectMemberParams struct {
	ConnId string
}

// DisconnectMember forgets the connection and, if it was in a room, leaves that room. The leave
// completes even when ctx is already cancelled.
func (s service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) error {
	session, err := s.connRepo.Remove(params.ConnId)
	if err != nil {
		return fmt.Errorf("failed to remove connection: %w", err)
	}

	if session.Identity == "" || session.RoomCode == "" {
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	if err := s.serializer.do(ctx, session.RoomCode, func(ctx context.Context) error {
		_, _, err := s.leave(ctx, session.RoomCode, session.Identity)
		return err
	}); err != nil && !errors.Is(err, ErrRoomNotFound) {
		s.logger.ErrorContext(ctx, "failed to leave room on disconnect", "code", session.RoomCode, "error", err)
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return nil
}

func (s service) getAuthenticatedSession(connId string) (connection.Session, error) {
	session, err := s.connRepo.GetSession(connId)
	if err != nil {
		return connection.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	if session.Identity == "" {
		return connection.Session{}, ErrUnauthenticated
	}

	return session, nil
}

func (s service) getJoinedSession(connId string) (connection.Session, error) {
	session, err := s.getAuthenticatedSession(connId)
	if err != nil {
		return connection.Session{}, err
	}

	if session.RoomCode == "" {
		return connection.Session{}, ErrNotInRoom
	}

	return session, nil
}
