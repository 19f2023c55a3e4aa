package room

import "github.com/sharetube/listen/internal/domain"

const (
	EventAuthenticated  = "authenticated"
	EventRoomState      = "room_state"
	EventMemberJoined   = "member_joined"
	EventMemberLeft     = "member_left"
	EventHostChanged    = "host_changed"
	EventPlaybackUpdate = "playback_update"
	EventPong           = "pong"
	EventError          = "error"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type AuthenticatedPayload struct {
	Identity    string `json:"identity"`
	ClockOffset int64  `json:"clock_offset"`
}

type RoomStatePayload struct {
	Room       domain.Room `json:"room"`
	ServerTime int64       `json:"server_time"`
}

type MemberPayload struct {
	Identity string `json:"identity"`
}

type HostChangedPayload struct {
	NewHost string `json:"new_host"`
}

type PlaybackUpdatePayload struct {
	PlaybackState *domain.PlaybackState `json:"playback_state"`
	ServerTime    int64                 `json:"server_time"`
}

type PongPayload struct {
	ServerTime int64 `json:"server_time"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
