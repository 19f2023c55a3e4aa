package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sharetube/listen/internal/service/room"
	"github.com/sharetube/listen/pkg/validator"
	"github.com/sharetube/listen/pkg/wsrouter"
)

type iRoomService interface {
	ConnectMember(context.Context, *room.ConnectMemberParams) error
	DisconnectMember(context.Context, *room.DisconnectMemberParams) error
	Authenticate(context.Context, *room.AuthenticateParams) (room.AuthenticateResponse, error)
	VerifyCredential(context.Context, string) (string, error)
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	GetRoom(context.Context, *room.GetRoomParams) (room.GetRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) error
	AddMember(context.Context, *room.AddMemberParams) (room.AddMemberResponse, error)
	RemoveMember(context.Context, *room.RemoveMemberParams) (room.RemoveMemberResponse, error)
	Play(context.Context, *room.PlayParams) (room.PlaybackResponse, error)
	Pause(context.Context, *room.PauseParams) (room.PlaybackResponse, error)
	Resume(context.Context, *room.ResumeParams) (room.PlaybackResponse, error)
	Seek(context.Context, *room.SeekParams) (room.PlaybackResponse, error)
	GetTime(context.Context) room.GetTimeResponse
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	corsOrigins []string
	logger      *slog.Logger
}

func NewController(roomService iRoomService, corsOrigins []string, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		corsOrigins: corsOrigins,
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
