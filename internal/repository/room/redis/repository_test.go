package redis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/listen/internal/domain"
	"github.com/sharetube/listen/internal/repository/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRepo(rc, 24*time.Hour, logger), mr, rc
}

func TestCreateAndGetRoom(t *testing.T) {
	ctx := context.Background()
	r, mr, _ := newTestRepo(t)

	rm := domain.NewRoom("AB12CD", "u1", t0)
	require.NoError(t, r.CreateRoom(ctx, &room.CreateRoomParams{Room: rm}))
	assert.Equal(t, 24*time.Hour, mr.TTL("room:AB12CD"))

	err := r.CreateRoom(ctx, &room.CreateRoomParams{Room: domain.NewRoom("AB12CD", "u2", t0)})
	assert.ErrorIs(t, err, room.ErrRoomAlreadyExists, "codes must be unique")

	got, err := r.GetRoom(ctx, "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, rm, got)

	_, err = r.GetRoom(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)

	mr.FastForward(25 * time.Hour)
	_, err = r.GetRoom(ctx, "AB12CD")
	assert.ErrorIs(t, err, room.ErrRoomNotFound, "rooms expire after the ttl")
}

func TestUpdateRoom(t *testing.T) {
	ctx := context.Background()
	r, mr, _ := newTestRepo(t)

	require.NoError(t, r.CreateRoom(ctx, &room.CreateRoomParams{Room: domain.NewRoom("AB12CD", "u1", t0)}))
	mr.FastForward(time.Hour)

	t.Run("writes and refreshes ttl", func(t *testing.T) {
		updated, err := r.UpdateRoom(ctx, "AB12CD", func(rm *domain.Room) (bool, error) {
			return rm.AddMember("u2"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, updated.Members)
		assert.Equal(t, 24*time.Hour, mr.TTL("room:AB12CD"))

		got, err := r.GetRoom(ctx, "AB12CD")
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, got.Members)
	})

	t.Run("unchanged room is not written", func(t *testing.T) {
		mr.FastForward(time.Hour)
		updated, err := r.UpdateRoom(ctx, "AB12CD", func(rm *domain.Room) (bool, error) {
			return rm.AddMember("u2"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, updated.Members)
		assert.Equal(t, 23*time.Hour, mr.TTL("room:AB12CD"))
	})

	t.Run("fn error aborts", func(t *testing.T) {
		errBoom := errors.New("boom")
		_, err := r.UpdateRoom(ctx, "AB12CD", func(rm *domain.Room) (bool, error) {
			rm.AddMember("u3")
			return true, errBoom
		})
		assert.ErrorIs(t, err, errBoom)

		got, err := r.GetRoom(ctx, "AB12CD")
		require.NoError(t, err)
		assert.NotContains(t, got.Members, "u3")
	})

	t.Run("missing room", func(t *testing.T) {
		_, err := r.UpdateRoom(ctx, "ZZZZZZ", func(rm *domain.Room) (bool, error) {
			return true, nil
		})
		assert.ErrorIs(t, err, room.ErrRoomNotFound)
	})
}

func TestUpdateRoomRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	r, _, rc := newTestRepo(t)

	require.NoError(t, r.CreateRoom(ctx, &room.CreateRoomParams{Room: domain.NewRoom("AB12CD", "u1", t0)}))

	calls := 0
	updated, err := r.UpdateRoom(ctx, "AB12CD", func(rm *domain.Room) (bool, error) {
		calls++
		if calls == 1 {
			// a concurrent writer lands between read and write
			other := domain.NewRoom("AB12CD", "u1", t0)
			other.AddMember("u2")
			data, err := json.Marshal(other)
			require.NoError(t, err)
			require.NoError(t, rc.Set(ctx, "room:AB12CD", data, time.Hour).Err())
		}

		return rm.AddMember("u3"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"u1", "u2", "u3"}, updated.Members, "retry must see the concurrent write")
}
