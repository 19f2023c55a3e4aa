package domain

import (
	"errors"
	"time"
)

var (
	ErrUnauthorized  = errors.New("only the host can control playback")
	ErrNoActiveTrack = errors.New("no active track")
)

type Track struct {
	URI    string `json:"uri"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// PlaybackState is anchored to the corrected clock: Position was exact at AnchorTime
// (both in milliseconds, AnchorTime as unix time).
type PlaybackState struct {
	Track      Track `json:"track"`
	IsPlaying  bool  `json:"is_playing"`
	Position   int64 `json:"position"`
	AnchorTime int64 `json:"anchor_time"`
}

// Elapsed returns the playback position at now.
func (p PlaybackState) Elapsed(now time.Time) int64 {
	if !p.IsPlaying {
		return p.Position
	}

	return p.Position + now.UnixMilli() - p.AnchorTime
}

func (r Room) checkHost(identity string) error {
	if !r.IsHost(identity) {
		return ErrUnauthorized
	}

	return nil
}

// Play starts track from the beginning, replacing whatever was loaded.
func (r *Room) Play(identity string, track Track, now time.Time) error {
	if err := r.checkHost(identity); err != nil {
		return err
	}

	r.PlaybackState = &PlaybackState{
		Track:      track,
		IsPlaying:  true,
		Position:   0,
		AnchorTime: now.UnixMilli(),
	}

	return nil
}

// Pause freezes the position at now. It reports false when nothing is playing.
func (r *Room) Pause(identity string, now time.Time) (bool, error) {
	if err := r.checkHost(identity); err != nil {
		return false, err
	}

	p := r.PlaybackState
	if p == nil || !p.IsPlaying {
		return false, nil
	}

	p.Position = p.Elapsed(now)
	p.IsPlaying = false
	p.AnchorTime = now.UnixMilli()

	return true, nil
}

// Resume continues from the frozen position. It reports false when there is no paused track.
func (r *Room) Resume(identity string, now time.Time) (bool, error) {
	if err := r.checkHost(identity); err != nil {
		return false, err
	}

	p := r.PlaybackState
	if p == nil || p.IsPlaying {
		return false, nil
	}

	p.IsPlaying = true
	p.AnchorTime = now.UnixMilli()

	return true, nil
}

// Seek moves the current track to position, keeping it playing or paused.
func (r *Room) Seek(identity string, position int64, now time.Time) error {
	if err := r.checkHost(identity); err != nil {
		return err
	}

	if r.PlaybackState == nil {
		return ErrNoActiveTrack
	}

	r.PlaybackState.Position = position
	r.PlaybackState.AnchorTime = now.UnixMilli()

	return nil
}
