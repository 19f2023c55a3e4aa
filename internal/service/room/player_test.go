package room

import (
	"context"
	"testing"
	"time"

	"github.com/sharetube/listen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTrack = domain.Track{URI: "spotify:track:1", Name: "Song", Artist: "Band"}

func TestPlaybackScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.createRoom(t, "u1")
	require.Equal(t, "AB12CD", code)

	c1 := f.connect(t, "c1", "u1")
	c2 := f.connect(t, "c2", "u2")
	f.join(t, c1, code)
	f.join(t, c2, code)
	c1.take(t)
	c2.take(t)

	start := f.s.clock.Now()

	resp, err := f.s.Play(ctx, &PlayParams{ConnId: "c1", Track: testTrack})
	require.NoError(t, err)
	assert.Equal(t, domain.PlaybackState{Track: testTrack, IsPlaying: true, Position: 0, AnchorTime: start.UnixMilli()}, *resp.PlaybackState)

	for _, conn := range []*fakeConn{c1, c2} {
		events := conn.take(t)
		require.Len(t, events, 1, "every member including the host gets the update")
		assert.Equal(t, EventPlaybackUpdate, events[0].Type)
		update := decodePayload[PlaybackUpdatePayload](t, events[0])
		assert.Equal(t, resp.PlaybackState, update.PlaybackState)
		assert.Equal(t, start.UnixMilli(), update.ServerTime)
	}

	f.clk.Advance(5 * time.Second)
	resp, err = f.s.Pause(ctx, &PauseParams{ConnId: "c1"})
	require.NoError(t, err)
	assert.False(t, resp.PlaybackState.IsPlaying)
	assert.Equal(t, int64(5000), resp.PlaybackState.Position)

	f.clk.Advance(4 * time.Second)
	resp, err = f.s.Resume(ctx, &ResumeParams{ConnId: "c1"})
	require.NoError(t, err)
	assert.True(t, resp.PlaybackState.IsPlaying)
	assert.Equal(t, start.Add(9*time.Second).UnixMilli(), resp.PlaybackState.AnchorTime)

	f.clk.Advance(3 * time.Second)
	room, err := f.s.GetRoom(ctx, &GetRoomParams{Code: code})
	require.NoError(t, err)
	assert.Equal(t, int64(8000), room.Room.PlaybackState.Elapsed(f.s.clock.Now()))

	c1.take(t)
	c2.take(t)

	_, err = f.s.Play(ctx, &PlayParams{ConnId: "c2", Track: domain.Track{URI: "spotify:track:2"}})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, c1.take(t), "rejected control must not be broadcast")
	assert.Empty(t, c2.take(t))

	after, err := f.s.GetRoom(ctx, &GetRoomParams{Code: code})
	require.NoError(t, err)
	assert.Equal(t, room.Room.PlaybackState, after.Room.PlaybackState, "rejected control must not persist")
}

func TestSeek(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.createRoom(t, "u1")
	c1 := f.connect(t, "c1", "u1")
	f.join(t, c1, code)

	_, err := f.s.Seek(ctx, &SeekParams{ConnId: "c1", Position: 1000})
	assert.ErrorIs(t, err, ErrNoActiveTrack)

	_, err = f.s.Seek(ctx, &SeekParams{ConnId: "c1", Position: -1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.s.Play(ctx, &PlayParams{ConnId: "c1", Track: testTrack})
	require.NoError(t, err)
	_, err = f.s.Pause(ctx, &PauseParams{ConnId: "c1"})
	require.NoError(t, err)

	f.clk.Advance(time.Second)
	resp, err := f.s.Seek(ctx, &SeekParams{ConnId: "c1", Position: 42000})
	require.NoError(t, err)
	assert.False(t, resp.PlaybackState.IsPlaying, "seek keeps the paused flag")
	assert.Equal(t, int64(42000), resp.PlaybackState.Position)
	assert.Equal(t, f.s.clock.Now().UnixMilli(), resp.PlaybackState.AnchorTime)
}

func TestPlaybackPreconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.createRoom(t, "u1")
	c1 := f.connect(t, "c1", "u1")

	_, err := f.s.Play(ctx, &PlayParams{ConnId: "c1", Track: testTrack})
	assert.ErrorIs(t, err, ErrNotInRoom)

	f.join(t, c1, code)
	c1.take(t)

	_, err = f.s.Play(ctx, &PlayParams{ConnId: "c1", Track: domain.Track{Name: "no uri"}})
	assert.ErrorIs(t, err, ErrValidation)

	resp, err := f.s.Pause(ctx, &PauseParams{ConnId: "c1"})
	require.NoError(t, err)
	assert.Nil(t, resp.PlaybackState)

	events := c1.take(t)
	require.Len(t, events, 1, "a no-op pause still re-broadcasts the current state")
	assert.Nil(t, decodePayload[PlaybackUpdatePayload](t, events[0]).PlaybackState)

	_, err = f.s.Resume(ctx, &ResumeParams{ConnId: "c1"})
	require.NoError(t, err)
}

func TestSlowConnectionIsDropped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.createRoom(t, "u1")
	c1 := f.connect(t, "c1", "u1")
	c2 := f.connect(t, "c2", "u2")
	f.join(t, c1, code)
	f.join(t, c2, code)
	c1.take(t)

	c2.mu.Lock()
	c2.full = true
	c2.mu.Unlock()

	_, err := f.s.Play(ctx, &PlayParams{ConnId: "c1", Track: testTrack})
	require.NoError(t, err, "a slow receiver must not fail the sender")

	assert.Equal(t, []string{EventPlaybackUpdate}, c1.takeTypes(t))
	c2.mu.Lock()
	defer c2.mu.Unlock()
	assert.True(t, c2.closed)
}
