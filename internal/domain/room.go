package domain

import "time"

type Room struct {
	Code          string         `json:"code"`
	HostId        string         `json:"host_id"`
	Members       []string       `json:"members"`
	PlaybackState *PlaybackState `json:"playback_state"`
	Active        bool           `json:"active"`
	CreatedAt     int64          `json:"created_at"`
	UpdatedAt     int64          `json:"updated_at"`
}

func NewRoom(code, hostId string, now time.Time) Room {
	return Room{
		Code:      code,
		HostId:    hostId,
		Members:   []string{hostId},
		Active:    true,
		CreatedAt: now.UnixMilli(),
		UpdatedAt: now.UnixMilli(),
	}
}

func (r Room) IsHost(identity string) bool {
	return identity != "" && r.HostId == identity
}

// Touch records a write at now.
func (r *Room) Touch(now time.Time) {
	r.UpdatedAt = now.UnixMilli()
}
