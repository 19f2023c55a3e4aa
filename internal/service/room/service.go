package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sharetube/listen/internal/domain"
	"github.com/sharetube/listen/internal/repository/connection"
	"github.com/sharetube/listen/internal/repository/room"
	"github.com/sharetube/listen/pkg/randstr"
)

var (
	ErrUnauthenticated      = errors.New("not authenticated")
	ErrInvalidCredential    = errors.New("invalid credential")
	ErrNotInRoom            = errors.New("not in a room")
	ErrCodeExhausted        = errors.New("failed to allocate a free room code")
	ErrValidation           = errors.New("validation failed")
	ErrAlreadyAuthenticated = connection.ErrAlreadyAuthenticated
	ErrRoomNotFound         = room.ErrRoomNotFound
	ErrUnauthorized         = domain.ErrUnauthorized
	ErrNoActiveTrack        = domain.ErrNoActiveTrack
)

type iRoomRepo interface {
	CreateRoom(context.Context, *room.CreateRoomParams) error
	GetRoom(context.Context, string) (domain.Room, error)
	UpdateRoom(context.Context, string, room.UpdateFunc) (domain.Room, error)
}

type iConnRepo interface {
	Add(connection.Conn) error
	Remove(connId string) (connection.Session, error)
	GetSession(connId string) (connection.Session, error)
	GetConn(connId string) (connection.Conn, error)
	SetIdentity(connId, identity string) error
	SetRoomCode(connId, code string) error
	GetConnsByRoomCode(code string) []connection.Conn
}

type iAuthenticator interface {
	Authenticate(ctx context.Context, credential string) (string, error)
}

type iClock interface {
	Now() time.Time
	Offset() time.Duration
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type service struct {
	roomRepo      iRoomRepo
	connRepo      iConnRepo
	authenticator iAuthenticator
	clock         iClock
	generator     iGenerator
	serializer    *serializer
	logger        *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, authenticator iAuthenticator, clock iClock, logger *slog.Logger) *service {
	return &service{
		roomRepo:      roomRepo,
		connRepo:      connRepo,
		authenticator: authenticator,
		clock:         clock,
		generator:     randstr.New(codeLetters),
		serializer:    newSerializer(logger),
		logger:        logger,
	}
}
